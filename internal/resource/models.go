package resource

import "time"

// Type is the closed set of resource kinds the decision engine understands.
// Adding a kind is a compile-time change, not a string convention.
type Type string

const (
	TypeMatter   Type = "matter"
	TypeDocument Type = "document"
)

func ValidType(t Type) bool { return t == TypeMatter || t == TypeDocument }

type MatterStatus string

const (
	MatterStatusOpen     MatterStatus = "open"
	MatterStatusClosed   MatterStatus = "closed"
	MatterStatusArchived MatterStatus = "archived"
)

// Matter is a tenant-scoped legal matter.
//
// Multi-tenant invariant: FirmID is required on every row.
//
// Classification is on the same numeric scale as principal clearance levels;
// this scale is meaningful only inside the owning firm.
type Matter struct {
	ID     string `json:"matter_id" db:"id"`
	FirmID string `json:"firm_id" db:"firm_id"`
	Name   string `json:"name" db:"name"`

	Classification int `json:"classification" db:"classification"`

	Status MatterStatus `json:"status" db:"status"`

	// ClosedAt anchors retention clocks for matter-closure policies.
	ClosedAt *time.Time `json:"closed_at,omitempty" db:"closed_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type DocumentStatus string

const (
	DocumentStatusActive   DocumentStatus = "active"
	DocumentStatusArchived DocumentStatus = "archived"
)

// Document belongs to exactly one matter. The matter reference is a one-way
// id lookup; matters never hold back-references to documents, so
// classification resolution is a single upward step with no cycle risk.
type Document struct {
	ID       string `json:"document_id" db:"id"`
	FirmID   string `json:"firm_id" db:"firm_id"`
	MatterID string `json:"matter_id" db:"matter_id"`
	Name     string `json:"name" db:"name"`

	// Classification is the stored value; the effective classification is
	// never lower than the parent matter's (see Resolver.Classify).
	Classification int `json:"classification" db:"classification"`

	Status DocumentStatus `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Classified is the resolved view the decision engine works with: one shape
// for both kinds, with the effective classification already computed.
type Classified struct {
	Type   Type
	ID     string
	FirmID string
	Name   string

	// ParentMatterID is set for documents only.
	ParentMatterID string

	// Classification is the effective value: for documents,
	// max(own, parent matter).
	Classification int

	CreatedAt time.Time

	// MatterClosedAt carries the owning matter's closure date (the
	// document's own matter for documents). Nil while the matter is open.
	MatterClosedAt *time.Time
}
