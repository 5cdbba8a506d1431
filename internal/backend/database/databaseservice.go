package database

import "database/sql"

type DatabaseService interface {
	CreateDatabase() (*sql.DB, error)
	DoesDatabaseExist() bool
	Close() error

	// CreateAvatar stores the record and returns it with ID and CreatedAt filled in
	// when they were left empty.
	CreateAvatar(record *AvatarRecord) (*AvatarRecord, error)
	// GetAvatarByID returns nil without error when no record matches.
	GetAvatarByID(id string) (*AvatarRecord, error)
	// GetAvatars lists all records, newest first.
	GetAvatars() ([]*AvatarRecord, error)
	DeleteAvatar(id string) error
}
