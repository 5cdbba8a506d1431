package database

import "time"

// AvatarRecord indexes one generated avatar and the upload it was made from
type AvatarRecord struct {
	ID               string    `db:"id" json:"id"`
	OriginalFilename string    `db:"original_filename" json:"originalFilename"`
	UploadPath       string    `db:"upload_path" json:"-"`
	AvatarFilename   string    `db:"avatar_filename" json:"avatarFilename"`
	AvatarPath       string    `db:"avatar_path" json:"-"`
	Width            int       `db:"width" json:"width"`
	Height           int       `db:"height" json:"height"`
	FaceCount        int       `db:"face_count" json:"faceCount"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
}
