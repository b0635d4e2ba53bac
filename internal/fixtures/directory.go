// Package fixtures seeds the in-memory stores with the portal's sample
// directory and communications board.
package fixtures

import "github.com/noah-isme/dims-api/internal/models"

// DirectoryUsers returns a fresh copy of the sample staff directory.
func DirectoryUsers() []models.DirectoryUser {
	return []models.DirectoryUser{
		{ID: "u0", Name: "System Root", Email: "root@dims.local", Role: models.RoleSystemAdmin, Avatar: avatar("root"), Title: "System Super Admin", Unit: "Central IT", IsOnline: true},
		{ID: "u1", Name: "Admin User", Email: "admin@dims.local", Role: models.RoleDivisionAdmin, Avatar: avatar("admin"), Title: "Division Administrator", Unit: "Administration", IsOnline: true},
		{ID: "u2", Name: "Alice Johnson", Email: "alice.j@dims.local", Role: models.RoleStaff, Avatar: avatar("alice"), Title: "Senior Staff", Unit: "Operations"},
		{ID: "u3", Name: "Bob Williams", Email: "bob.w@dims.local", Role: models.RoleStaff, Avatar: avatar("bob"), Title: "Junior Staff", Unit: "Logistics", IsOnline: true},
		{ID: "u4", Name: "Dr. Carol White", Email: "carol.w@dims.local", Role: models.RoleFaculty, Avatar: avatar("carol"), Title: "Professor", Unit: "Academics"},
		{ID: "u5", Name: "David Green", Email: "david.g@dims.local", Role: models.RoleFaculty, Avatar: avatar("david"), Title: "Stakeholder", Unit: "External Affairs", IsOnline: true},
		{ID: "u6", Name: "Eve Black", Email: "eve.b@dims.local", Role: models.RoleStaff, Avatar: avatar("eve"), Title: "HR Manager", Unit: "Human Resources", IsOnline: true},
		{ID: "u7", Name: "Frank Blue", Email: "frank.b@dims.local", Role: models.RoleDivisionAdmin, Avatar: avatar("frank"), Title: "IT Administrator", Unit: "IT Services"},
	}
}

func avatar(seed string) string {
	return "https://picsum.photos/seed/" + seed + "/100/100"
}
