package model

import "time"

// Dataset is the complete exportable business state. It is owned by the
// local store; sync and import code only ever holds transient copies.
type Dataset struct {
	Products           []Product           `json:"products"`
	Customers          []Customer          `json:"customers"`
	Sales              []Sale              `json:"sales"`
	Vendors            []Vendor            `json:"vendors"`
	Purchases          []Purchase          `json:"purchases"`
	Expenditures       []Expenditure       `json:"expenditures"`
	CreditTransactions []CreditTransaction `json:"creditTransactions"`
	Settings           map[string]string   `json:"settings,omitempty"`
}

// Product is the canonical product shape. Nullable numeric fields are
// pointers: absent means "unknown", which is distinct from zero.
type Product struct {
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	HasVariants bool      `json:"hasVariants"`
	Variants    []Variant `json:"variants,omitempty"`
	Price       *float64  `json:"price"`
	Stock       *float64  `json:"stock"`
	MinStock    *float64  `json:"minStock"`
	Barcode     *string   `json:"barcode"`
	Unit        *string   `json:"unit"`
	CostPrice   *float64  `json:"costPrice"`
}

// Variant is one sellable variation of a product. Unlike the parent
// product, its numeric fields default to zero when absent.
type Variant struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	Design               string  `json:"design,omitempty"`
	Size                 string  `json:"size,omitempty"`
	Color                string  `json:"color,omitempty"`
	Material             string  `json:"material,omitempty"`
	Price                float64 `json:"price"`
	Stock                float64 `json:"stock"`
	MinStock             float64 `json:"minStock"`
	Barcode              string  `json:"barcode,omitempty"`
	CostPrice            float64 `json:"costPrice"`
	CustomAttributeLabel string  `json:"customAttributeLabel,omitempty"`
	CustomAttributeValue string  `json:"customAttributeValue,omitempty"`
}

type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Balance   float64   `json:"balance"`
	CreatedAt time.Time `json:"createdAt"`
}

type Vendor struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Phone   string  `json:"phone,omitempty"`
	Address string  `json:"address,omitempty"`
	Balance float64 `json:"balance"`
}

// Sale line items are carried as an opaque JSON document; the durability
// core replaces sales wholesale and never inspects individual lines.
type Sale struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customerId,omitempty"`
	Total      float64   `json:"total"`
	Paid       float64   `json:"paid"`
	ItemsJSON  string    `json:"items"`
	SoldAt     time.Time `json:"soldAt"`
}

type Purchase struct {
	ID          string    `json:"id"`
	VendorID    string    `json:"vendorId,omitempty"`
	Total       float64   `json:"total"`
	Paid        float64   `json:"paid"`
	ItemsJSON   string    `json:"items"`
	PurchasedAt time.Time `json:"purchasedAt"`
}

type Expenditure struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Category    string    `json:"category,omitempty"`
	Amount      float64   `json:"amount"`
	SpentAt     time.Time `json:"spentAt"`
}

// CreditTransaction records credit extended to or payment received from a
// customer or vendor.
type CreditTransaction struct {
	ID        string    `json:"id"`
	PartyType string    `json:"partyType"` // "customer" or "vendor"
	PartyID   string    `json:"partyId"`
	Kind      string    `json:"kind"` // "credit" or "payment"
	Amount    float64   `json:"amount"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Snapshot is one remote row: the serialized Dataset for a tenant plus
// authorship metadata. At most one row exists per company key; the remote
// enforces last-write-wins with an upsert on that key.
type Snapshot struct {
	CompanyKey string    `db:"company_key"`
	DeviceID   string    `db:"device_id"`
	Payload    []byte    `db:"payload"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// SyncState tracks, per logical dataset name, when this device last pushed
// and last pulled. Zero time means never.
type SyncState struct {
	Name         string
	LastPushedAt time.Time
	LastPulledAt time.Time
}

// BackupRecord describes one backup file on disk. The directory listing is
// the source of truth; records are derived from it, never stored.
type BackupRecord struct {
	Name      string
	Path      string
	Size      int64
	CreatedAt time.Time
}

// SnapshotFileVersion is the current inventory snapshot document version.
const SnapshotFileVersion = 2

// SnapshotFile is the versioned, self-describing inventory export document.
type SnapshotFile struct {
	Version      int       `json:"version"`
	ExportedAt   time.Time `json:"exportedAt"`
	Source       string    `json:"source"` // "local" or "remote"
	ProductCount int       `json:"productCount"`
	Products     []Product `json:"products"`
}

// BackupSchedule is the persisted automated-backup setting.
type BackupSchedule struct {
	Enabled       bool `json:"enabled"`
	IntervalHours int  `json:"intervalHours"`
}

// ExportReceipt is the persisted metadata of the most recent inventory
// export, surfaced by the UI layer after a successful export.
type ExportReceipt struct {
	FileName string    `json:"fileName"`
	SavedAt  time.Time `json:"savedAt"`
	URI      string    `json:"uri"`
	Location string    `json:"location"` // "external" or "private"
}
