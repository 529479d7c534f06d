package enum

// ── Order payment status (CHECK constrained in DB) ──

const (
	PaymentStatusPending  = "pending"
	PaymentStatusPartial  = "partial"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

// ── Service booking status (CHECK constrained in DB) ──

const (
	BookingStatusPending    = "pending"
	BookingStatusConfirmed  = "confirmed"
	BookingStatusInProgress = "in_progress"
	BookingStatusCompleted  = "completed"
	BookingStatusCancelled  = "cancelled"
)

// ── Staff roles (CHECK constrained in DB) ──

const (
	UserRoleAdmin = "ADMIN"
	UserRoleStaff = "STAFF"
)

// ── Ingredient stock units (configurable labels, no DB constraint) ──

const (
	UnitLiter      = "Liter"
	UnitKilogram   = "Kilogram"
	UnitPiece      = "Piece"
	UnitPack       = "Pack"
	UnitBottle     = "Bottle"
	UnitGram       = "Gram"
	UnitMilliliter = "Milliliter"
)

// ── Order line kinds (routing discriminator, not stored) ──

const (
	LineKindItem    = "item"
	LineKindService = "service"
)
