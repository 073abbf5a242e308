package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles
const (
	RoleIdeaOwner = "idea_owner"
	RoleDeveloper = "developer"
	RoleDesigner  = "designer"
	RoleMentor    = "mentor"
	RoleInvestor  = "investor"
)

// Idea visibility
const (
	VisibilityPublic  = "public"
	VisibilityPreview = "preview"
)

// Collaboration request status
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Notification types
const (
	NotifIdeaView              = "idea_view"
	NotifProfileView           = "profile_view"
	NotifCollaborationRequest  = "collaboration_request"
	NotifCollaborationAccepted = "collaboration_accepted"
	NotifCollaborationRejected = "collaboration_rejected"
	NotifNewMessage            = "new_message"
)

// StringList is stored as a JSON array column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return fmt.Errorf("unsupported list column type %T", src)
}

// Accounts (local credentials)
type User struct {
	ID           string `gorm:"primaryKey;size:36" json:"id"`
	Email        string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:128;not null" json:"-"`
	CreatedAt    time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Profiles
type Profile struct {
	ID                  string     `gorm:"primaryKey;size:36" json:"id"`
	UserID              string     `gorm:"size:36;uniqueIndex;not null" json:"user_id"`
	Email               string     `gorm:"size:255;not null" json:"email"`
	FullName            string     `gorm:"size:128;not null" json:"full_name"`
	Role                string     `gorm:"size:16;not null" json:"role"`
	Headline            string     `gorm:"size:255" json:"headline,omitempty"`
	About               string     `gorm:"type:text" json:"about,omitempty"`
	AvatarURL           string     `gorm:"size:512" json:"avatar_url,omitempty"`
	Location            string     `gorm:"size:128" json:"location,omitempty"`
	Skills              StringList `gorm:"type:json" json:"skills"`
	LinkedinURL         string     `gorm:"size:512" json:"linkedin_url,omitempty"`
	GithubURL           string     `gorm:"size:512" json:"github_url,omitempty"`
	BehanceURL          string     `gorm:"size:512" json:"behance_url,omitempty"`
	PortfolioURL        string     `gorm:"size:512" json:"portfolio_url,omitempty"`
	ExperienceYears     int        `gorm:"default:0" json:"experience_years"`
	GuidanceDomains     StringList `gorm:"type:json" json:"guidance_domains"`
	InvestmentInterests StringList `gorm:"type:json" json:"investment_interests"`
	InvestmentStage     string     `gorm:"size:16" json:"investment_stage,omitempty"`
	TicketSizeMin       uint64     `gorm:"default:0" json:"ticket_size_min"`
	TicketSizeMax       uint64     `gorm:"default:0" json:"ticket_size_max"`
	OpenToPitches       bool       `gorm:"default:false" json:"open_to_pitches"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Ideas
type Idea struct {
	ID               string     `gorm:"primaryKey;size:36" json:"id"`
	OwnerID          string     `gorm:"size:36;index;not null" json:"owner_id"`
	Title            string     `gorm:"size:255;not null" json:"title"`
	ProblemStatement string     `gorm:"type:text;not null" json:"problem_statement"`
	HighLevelConcept string     `gorm:"type:text;not null" json:"high_level_concept"`
	DetailedSolution string     `gorm:"type:text" json:"detailed_solution,omitempty"`
	TargetAudience   string     `gorm:"size:255" json:"target_audience,omitempty"`
	Visibility       string     `gorm:"size:8;not null;default:public" json:"visibility"`
	Category         string     `gorm:"size:16;not null" json:"category"`
	LookingFor       StringList `gorm:"type:json" json:"looking_for"`
	Upvotes          int64      `gorm:"default:0" json:"upvotes"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	Owner *Profile `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}

func (i *Idea) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// Collaboration requests. One per (idea, requester); version is the
// compare-and-swap token for status transitions.
type CollaborationRequest struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	IdeaID      string    `gorm:"size:36;not null;uniqueIndex:uniq_idea_requester" json:"idea_id"`
	RequesterID string    `gorm:"size:36;not null;uniqueIndex:uniq_idea_requester" json:"requester_id"`
	OwnerID     string    `gorm:"size:36;index;not null" json:"owner_id"`
	Status      string    `gorm:"size:16;not null;default:pending" json:"status"`
	Message     string    `gorm:"type:text" json:"message,omitempty"`
	Version     uint32    `gorm:"not null;default:0" json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Requester *Profile `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Idea      *Idea    `gorm:"foreignKey:IdeaID" json:"idea,omitempty"`
}

func (r *CollaborationRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Conversations. The participant pair is normalized so ParticipantOne sorts
// before ParticipantTwo; the unique index then guarantees one conversation
// per pair regardless of who reached out first.
type Conversation struct {
	ID                 string    `gorm:"primaryKey;size:36" json:"id"`
	ParticipantOne     string    `gorm:"size:36;not null;uniqueIndex:uniq_participants" json:"participant_one"`
	ParticipantTwo     string    `gorm:"size:36;not null;uniqueIndex:uniq_participants" json:"participant_two"`
	IdeaID             string    `gorm:"size:36;index" json:"idea_id,omitempty"`
	IsApproved         bool      `gorm:"default:false" json:"is_approved"`
	IntroMessagesCount int       `gorm:"default:0" json:"intro_messages_count"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Other returns the participant that is not id.
func (c *Conversation) Other(id string) string {
	if c.ParticipantOne == id {
		return c.ParticipantTwo
	}
	return c.ParticipantOne
}

func (c *Conversation) HasParticipant(id string) bool {
	return c.ParticipantOne == id || c.ParticipantTwo == id
}

// Messages
type Message struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	ConversationID string    `gorm:"size:36;index;not null" json:"conversation_id"`
	SenderID       string    `gorm:"size:36;not null" json:"sender_id"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	FileURL        string    `gorm:"size:512" json:"file_url,omitempty"`
	FileName       string    `gorm:"size:255" json:"file_name,omitempty"`
	IsRead         bool      `gorm:"default:false" json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// Notifications
type Notification struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;index;not null" json:"user_id"`
	Type      string    `gorm:"size:32;not null" json:"type"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Link      string    `gorm:"size:512" json:"link,omitempty"`
	IdeaID    string    `gorm:"size:36" json:"idea_id,omitempty"`
	ActorID   string    `gorm:"size:36" json:"actor_id,omitempty"`
	IsRead    bool      `gorm:"default:false" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// Idea upvotes
type IdeaUpvote struct {
	ID        string `gorm:"primaryKey;size:36"`
	IdeaID    string `gorm:"size:36;not null;uniqueIndex:uniq_idea_user"`
	UserID    string `gorm:"size:36;not null;uniqueIndex:uniq_idea_user"`
	CreatedAt time.Time
}

func (u *IdeaUpvote) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Blocked users
type BlockedUser struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	BlockerID string    `gorm:"size:36;not null;uniqueIndex:uniq_block_pair" json:"blocker_id"`
	BlockedID string    `gorm:"size:36;not null;uniqueIndex:uniq_block_pair" json:"blocked_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (b *BlockedUser) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// Reports
type Report struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	ReporterID     string    `gorm:"size:36;index;not null" json:"reporter_id"`
	ReportedUserID string    `gorm:"size:36" json:"reported_user_id,omitempty"`
	ReportedIdeaID string    `gorm:"size:36" json:"reported_idea_id,omitempty"`
	Reason         string    `gorm:"size:64;not null" json:"reason"`
	Description    string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
