package jukebox

import "errors"

var (
	ErrTrackNotFound    = errors.New("track not found")
	ErrPlaylistNotFound = errors.New("playlist not found")
	ErrEmptyPlaylist    = errors.New("queue is empty")
	ErrReservedPlaylist = errors.New("the All playlist cannot be changed")
	ErrPlaylistExists   = errors.New("playlist name already taken")
	ErrInvalidName      = errors.New("invalid playlist name")
	ErrNoTrackLoaded    = errors.New("no track loaded")
	ErrNameClash        = errors.New("playlist already has a track with that name")
)
