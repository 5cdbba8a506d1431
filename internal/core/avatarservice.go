package core

import "context"

// AvatarService is the surface the HTTP layers depend on
type AvatarService interface {
	CreateAvatar(ctx context.Context, filename string, data []byte) (*Avatar, error)
	GetAvatar(id string) (*Avatar, error)
	ListAvatars() ([]*Avatar, error)
	GetAvatarImage(id string) (*Avatar, []byte, error)
	GetOriginalImage(id string) (*Avatar, []byte, string, error)
	DeleteAvatar(id string) error
}

var _ AvatarService = (*CoreService)(nil)
