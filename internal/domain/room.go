package domain

type RoomName string

// DefaultRoom is the single room every connection is placed in today.
// Rooms are an explicit concept so additional rooms are an extension,
// not a rewrite.
const DefaultRoom RoomName = "general"
