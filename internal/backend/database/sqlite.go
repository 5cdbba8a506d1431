package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const avatarColumns = "id, original_filename, upload_path, avatar_filename, avatar_path, width, height, face_count, created_at"

type SQLiteDatabase struct {
	db               *sql.DB
	connectionString string
}

func NewSQLiteDatabase(connectionString string) (DatabaseService, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, err
	}
	// One connection serialises writers and keeps an in-memory database alive
	db.SetMaxOpenConns(1)

	return &SQLiteDatabase{
		db:               db,
		connectionString: connectionString,
	}, nil
}

func (s *SQLiteDatabase) CreateDatabase() (*sql.DB, error) {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS avatars (
		id TEXT PRIMARY KEY,
		original_filename TEXT NOT NULL,
		upload_path TEXT NOT NULL,
		avatar_filename TEXT NOT NULL,
		avatar_path TEXT NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		face_count INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		return nil, err
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_avatars_created_at ON avatars (created_at)`)
	if err != nil {
		return nil, err
	}

	return s.db, nil
}

func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteDatabase) DoesDatabaseExist() bool {
	// In SQLite, the database file is created when you connect to it.
	// So we can assume it exists if we can successfully ping the database.
	err := s.db.Ping()
	return err == nil
}

func (s *SQLiteDatabase) CreateAvatar(record *AvatarRecord) (*AvatarRecord, error) {
	stored := *record
	if stored.ID == "" {
		id, err := generateID()
		if err != nil {
			return nil, err
		}
		stored.ID = id
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec("INSERT INTO avatars ("+avatarColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		stored.ID,
		stored.OriginalFilename,
		stored.UploadPath,
		stored.AvatarFilename,
		stored.AvatarPath,
		stored.Width,
		stored.Height,
		stored.FaceCount,
		stored.CreatedAt.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert avatar %s: %w", stored.ID, err)
	}

	return &stored, nil
}

func (s *SQLiteDatabase) GetAvatarByID(id string) (*AvatarRecord, error) {
	row := s.db.QueryRow("SELECT "+avatarColumns+" FROM avatars WHERE id = ?", id)
	record, err := scanAvatar(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *SQLiteDatabase) GetAvatars() ([]*AvatarRecord, error) {
	rows, err := s.db.Query("SELECT " + avatarColumns + " FROM avatars ORDER BY created_at DESC, id ASC")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close() // Explicitly ignore error as we're already returning an error from the function
	}()

	var records []*AvatarRecord
	for rows.Next() {
		record, err := scanAvatar(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *SQLiteDatabase) DeleteAvatar(id string) error {
	_, err := s.db.Exec("DELETE FROM avatars WHERE id = ?", id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAvatar(row rowScanner) (*AvatarRecord, error) {
	var record AvatarRecord
	var createdAt int64
	err := row.Scan(
		&record.ID,
		&record.OriginalFilename,
		&record.UploadPath,
		&record.AvatarFilename,
		&record.AvatarPath,
		&record.Width,
		&record.Height,
		&record.FaceCount,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	record.CreatedAt = time.Unix(0, createdAt).UTC()
	return &record, nil
}
