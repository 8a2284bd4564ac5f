package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
)

type Repositories struct {
	// Transactional repositories (pgxpool)
	UserRepo       UserRepository
	TeamRepo       TeamRepository
	InvitationRepo InvitationRepository
	TaskRepo       WorkItemRepository
	ProjectRepo    WorkItemRepository
	ActivityRepo   ActivityRepository
	MessageRepo    MessageRepository
	MeetingRepo    MeetingRepository

	// Read-side projections (sqlx over the same pool)
	AnalyticsRepo AnalyticsRepository
}

func NewRepositories(pool *pgxpool.Pool, db *sqlx.DB) *Repositories {
	return &Repositories{
		UserRepo:       NewUserRepository(pool),
		TeamRepo:       NewTeamRepository(pool),
		InvitationRepo: NewInvitationRepository(pool),
		TaskRepo:       NewTaskRepository(pool),
		ProjectRepo:    NewProjectRepository(pool),
		ActivityRepo:   NewActivityRepository(pool),
		MessageRepo:    NewMessageRepository(pool),
		MeetingRepo:    NewMeetingRepository(pool),

		AnalyticsRepo: NewAnalyticsRepository(db),
	}
}
