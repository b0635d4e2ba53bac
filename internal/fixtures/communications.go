package fixtures

import (
	"strings"
	"time"

	"github.com/noah-isme/dims-api/internal/models"
)

type seed struct {
	id        string
	title     string
	content   string
	category  models.CommunicationCategory
	priority  models.CommunicationPriority
	author    string
	daysAgo   int
	acked     []string
	total     int
	roles     []models.UserRole
	userIDs   []string
	fileNames []string
}

var (
	everyone      = []models.UserRole{models.RoleDivisionAdmin, models.RoleStaff, models.RoleFaculty}
	staffFaculty  = []models.UserRole{models.RoleStaff, models.RoleFaculty}
	staffOnly     = []models.UserRole{models.RoleStaff}
	divisionAdmin = []models.UserRole{models.RoleDivisionAdmin}
)

const (
	announcement = models.CategoryAnnouncement
	circularCat  = models.CategoryCircular
	memo         = models.CategoryMemo
	high         = models.PriorityHigh
	normal       = models.PriorityNormal
)

var seeds = []seed{
	{id: "a1", title: "System Maintenance Window", content: "The DIMS platform will be undergoing scheduled maintenance this Saturday from 10:00 PM to 2:00 AM. Please save your work.", category: announcement, priority: high, author: "System Root", daysAgo: 0},
	{id: "c3", title: "Updated Health Protocols", content: "Please review the attached guidelines regarding new health safety protocols effective immediately for all on-site personnel.", category: circularCat, priority: high, author: "Admin User", daysAgo: 1, total: 20},
	{id: "c4", title: "New IT Security Policy", content: "A new comprehensive IT security policy has been ratified. All employees are required to review the document and update their passwords accordingly.", category: circularCat, priority: high, author: "Frank Blue", daysAgo: 2, acked: []string{"u2"}, total: 25},
	{id: "m1", title: "Q4 Performance Review Reminder", content: "Please submit all performance reviews by December 20th. Templates are available in the Documents section.", category: memo, priority: normal, author: "Eve Black", daysAgo: 3, acked: []string{"u2"}, total: 7},
	{id: "c1", title: "Holiday Schedule Announcement", content: "The division will be closed from Dec 24th to Jan 2nd. Essential staff will be on rotation.", category: circularCat, priority: normal, author: "Admin User", daysAgo: 5, acked: []string{"u2", "u4", "u5"}, total: 7},
	{id: "a2", title: "Welcome New Hires", content: "Please join us in welcoming Sarah and Tom to the logistics team!", category: announcement, priority: normal, author: "Eve Black", daysAgo: 7},
	{id: "c2", title: "Mandatory Security Training", content: "All staff must complete the new security training module by end of the month. Failure to comply will result in account suspension.", category: circularCat, priority: high, author: "Frank Blue", daysAgo: 10, acked: []string{"u1", "u2", "u3", "u5", "u6", "u7"}, total: 7},
	{id: "m2", title: "Office Supply Request Protocol", content: "Effective immediately, all supply requests must be routed through the new ERP module.", category: memo, priority: normal, author: "Bob Williams", daysAgo: 12, acked: []string{"u1"}, total: 10},
	{id: "a3", title: "Cafeteria Menu Update", content: "We have added vegan and gluten-free options to the daily menu starting next week.", category: announcement, priority: normal, author: "Admin User", daysAgo: 13},
	{id: "c5", title: "Fire Drill Schedule", content: "The annual fire drill is scheduled for next Tuesday at 10:00 AM. Please assemble at the designated points.", category: circularCat, priority: high, author: "System Root", daysAgo: 15, acked: []string{"u1", "u2"}, total: 50},
	{id: "m3", title: "Team Building Event", content: "Join us for a team building event at the city park on Friday afternoon.", category: memo, priority: normal, author: "Eve Black", daysAgo: 16, total: 15},
	{id: "a4", title: "Server Downtime Alert", content: "The main file server will be rebooted tonight at 3 AM. Expect brief interruptions.", category: announcement, priority: high, author: "Frank Blue", daysAgo: 18},
	{id: "c6", title: "New ID Card Issuance", content: "All staff are required to obtain their new smart ID cards from the security office by Friday.", category: circularCat, priority: normal, author: "Admin User", daysAgo: 20, acked: []string{"u1", "u2", "u3", "u4", "u5"}, total: 50},
	{id: "m4", title: "Expense Report Guidelines", content: "Updated guidelines for travel expense reimbursement are now available on the portal.", category: memo, priority: normal, author: "Alice Johnson", daysAgo: 22, acked: []string{"u1"}, total: 12},
	{id: "a5", title: "Parking Lot Maintenance", content: "The north parking lot will be resurfaced this weekend. Please park in the south lot.", category: announcement, priority: normal, author: "Bob Williams", daysAgo: 25},
	{id: "c7", title: "Annual General Meeting", content: "The AGM will be held on the 15th of next month. Attendance is mandatory for department heads.", category: circularCat, priority: high, author: "System Root", daysAgo: 28, total: 8, roles: divisionAdmin, userIDs: []string{"u4", "u6"}},
	{id: "m5", title: "Project Alpha Kickoff", content: "The kickoff meeting for Project Alpha is scheduled for Monday at 9 AM in Conference Room B.", category: memo, priority: high, author: "Dr. Carol White", daysAgo: 30, acked: []string{"u1", "u2"}, total: 6, roles: staffOnly, userIDs: []string{"u1", "u5"}},
	{id: "a6", title: "Lost and Found", content: "A set of keys was found in the lobby. Please claim them at the reception.", category: announcement, priority: normal, author: "Admin User", daysAgo: 32},
	{id: "c8", title: "Code of Conduct Refresher", content: "A friendly reminder to review the corporate code of conduct available in the handbook.", category: circularCat, priority: normal, author: "Eve Black", daysAgo: 35, acked: []string{"u1", "u2", "u3", "u4", "u5", "u6", "u7"}, total: 50},
	{id: "m6", title: "Software License Renewal", content: "Please verify your Adobe license status and report to IT if expiration is near.", category: memo, priority: high, author: "Frank Blue", daysAgo: 38, total: 10},
	{id: "a7", title: "Weather Advisory", content: "Due to heavy snow forecast, the office will close early at 3 PM today.", category: announcement, priority: high, author: "Admin User", daysAgo: 40},
	{id: "c9", title: "Data Privacy Workshop", content: "A workshop on data privacy best practices will be held next Wednesday.", category: circularCat, priority: normal, author: "Frank Blue", daysAgo: 42, total: 20},
	{id: "m7", title: "Meeting Room Booking System", content: "We are switching to a new booking system. Please refer to the tutorial sent via email.", category: memo, priority: normal, author: "Alice Johnson", daysAgo: 45, acked: []string{"u1"}, total: 50},
	{id: "a8", title: "Flu Shot Drive", content: "Free flu shots will be administered in the clinic this Thursday.", category: announcement, priority: normal, author: "Eve Black", daysAgo: 48},
	{id: "c10", title: "Quarterly Town Hall", content: "Join the leadership team for a quarterly update and Q&A session.", category: circularCat, priority: normal, author: "System Root", daysAgo: 50, acked: []string{"u1", "u2", "u3"}, total: 50},
	{id: "m8", title: "Work from Home Policy Update", content: "The WFH policy has been revised to allow 3 days remote per week.", category: memo, priority: high, author: "Eve Black", daysAgo: 55, acked: []string{"u1", "u2", "u3", "u4"}, total: 50},
	{id: "a9", title: "Recycling Initiative", content: "New recycling bins have been placed in the break rooms. Please sort your waste.", category: announcement, priority: normal, author: "David Green", daysAgo: 60},
	{id: "c11", title: "Payroll Schedule Change", content: "Payroll will now be processed on the 15th and 30th of each month.", category: circularCat, priority: high, author: "Admin User", daysAgo: 65, acked: []string{"u1", "u2", "u3", "u4", "u5", "u6", "u7"}, total: 50},
	{id: "m9", title: "Client Visit Protocol", content: "Please ensure the meeting rooms are prepped 15 minutes prior to client arrivals.", category: memo, priority: normal, author: "Alice Johnson", daysAgo: 70, total: 10},
	{id: "a10", title: "Elevator Maintenance", content: "Elevator B will be out of service for repairs tomorrow.", category: announcement, priority: normal, author: "Bob Williams", daysAgo: 75},
	{id: "c12", title: "Strategic Planning Session", content: "Leadership retreat for strategic planning is scheduled for next month.", category: circularCat, priority: normal, author: "System Root", daysAgo: 80, total: 5, roles: divisionAdmin, userIDs: []string{"u5"}},
	{id: "m10", title: "KPI Submission Deadline", content: "Reminder to submit your KPIs for the next quarter by Friday.", category: memo, priority: high, author: "Eve Black", daysAgo: 90, acked: []string{"u1"}, total: 50},
}

// Communications returns the sample board with publication dates relative to
// now. Authors are resolved against the sample directory; items without an
// explicit audience get the default audience of their category and
// circulars and memos get a generated attachment name.
func Communications(now time.Time) []models.Communication {
	authors := make(map[string]string)
	for _, u := range DirectoryUsers() {
		authors[u.Name] = u.ID
	}

	out := make([]models.Communication, 0, len(seeds))
	for _, s := range seeds {
		roles := s.roles
		if roles == nil {
			roles = defaultAudience(s.category)
		}
		attachments := s.fileNames
		if attachments == nil && s.category.RequiresAttachment() {
			attachments = []string{strings.ReplaceAll(s.title, " ", "_") + ".pdf"}
		}
		out = append(out, models.Communication{
			ID:              s.id,
			Title:           s.title,
			Content:         s.content,
			Category:        s.category,
			Priority:        s.priority,
			PublishedByID:   authors[s.author],
			PublishedBy:     s.author,
			PublishedAt:     now.AddDate(0, 0, -s.daysAgo).UTC(),
			AcknowledgedBy:  append([]string{}, s.acked...),
			TotalRecipients: s.total,
			Attachments:     append([]string{}, attachments...),
			History:         []models.HistoryEntry{},
			TargetRoles:     append([]models.UserRole{}, roles...),
			TargetUserIDs:   append([]string{}, s.userIDs...),
		})
	}
	return out
}

func defaultAudience(category models.CommunicationCategory) []models.UserRole {
	switch category {
	case models.CategoryAnnouncement:
		return everyone
	case models.CategoryCircular:
		return staffFaculty
	default:
		return staffOnly
	}
}
