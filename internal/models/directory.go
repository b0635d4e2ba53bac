package models

// DirectoryUser is a staff directory entry.
type DirectoryUser struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Role     UserRole `json:"role"`
	Avatar   string   `json:"avatar"`
	Title    string   `json:"title"`
	Unit     string   `json:"unit"`
	IsOnline bool     `json:"is_online"`
}

// Viewer projects the directory entry onto a board identity.
func (u DirectoryUser) Viewer() Viewer {
	return Viewer{ID: u.ID, Name: u.Name, Role: u.Role}
}

// DirectoryFilter narrows directory listings.
type DirectoryFilter struct {
	Role   UserRole
	Search string
}
