package models

import "time"

// BookingStatus is the closed set of booking lifecycle states.
type BookingStatus string

const (
	StatusSearching      BookingStatus = "SEARCHING"
	StatusRequested      BookingStatus = "REQUESTED"
	StatusConfirmed      BookingStatus = "CONFIRMED"
	StatusAssigned       BookingStatus = "ASSIGNED"
	StatusJourneyStarted BookingStatus = "JOURNEY_STARTED"
	StatusVisited        BookingStatus = "VISITED"
	StatusInProgress     BookingStatus = "IN_PROGRESS"
	StatusWorkDone       BookingStatus = "WORK_DONE"
	StatusCompleted      BookingStatus = "COMPLETED"
	StatusCancelled      BookingStatus = "CANCELLED"
	StatusRejected       BookingStatus = "REJECTED"
)

// IsTerminal reports whether no further transitions are possible.
func (s BookingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusRejected
}

// ActorRole identifies who is requesting a lifecycle change.
type ActorRole string

const (
	RoleCustomer ActorRole = "customer"
	RoleProvider ActorRole = "provider"
	RoleWorker   ActorRole = "worker"
	RoleAdmin    ActorRole = "admin"
)

// AssignmentMode distinguishes "nobody assigned yet", "provider performs
// personally" and "a specific field worker is assigned". Kept as an explicit
// tag so an empty worker id is never ambiguous.
type AssignmentMode string

const (
	AssignmentUnassigned AssignmentMode = "unassigned"
	AssignmentSelf       AssignmentMode = "self"
	AssignmentWorker     AssignmentMode = "worker"
)

// WorkerAssignment records who performs the job. WorkerID is set only when
// Mode == AssignmentWorker.
type WorkerAssignment struct {
	Mode     AssignmentMode `bson:"mode" json:"mode"`
	WorkerID string         `bson:"workerId,omitempty" json:"workerId,omitempty"`
}

func SelfAssignment() WorkerAssignment {
	return WorkerAssignment{Mode: AssignmentSelf}
}

func AssignedTo(workerID string) WorkerAssignment {
	return WorkerAssignment{Mode: AssignmentWorker, WorkerID: workerID}
}

// PricingSnapshot is captured at creation/acceptance and never recomputed.
// All amounts are in currency minor units.
type PricingSnapshot struct {
	BasePrice          int64   `bson:"basePrice" json:"basePrice"`
	Discount           int64   `bson:"discount" json:"discount"`
	Tax                int64   `bson:"tax" json:"tax"`
	VisitingCharge     int64   `bson:"visitingCharge" json:"visitingCharge"`
	FinalAmount        int64   `bson:"finalAmount" json:"finalAmount"`
	ProviderEarnings   int64   `bson:"providerEarnings" json:"providerEarnings"`
	PlatformCommission int64   `bson:"platformCommission" json:"platformCommission"`
	CommissionRate     float64 `bson:"commissionRate" json:"commissionRate"`
}

// Candidate is one ranked dispatch candidate.
type Candidate struct {
	ProviderID string  `bson:"providerId" json:"providerId"`
	DistanceKm float64 `bson:"distanceKm" json:"distanceKm"`
}

// DispatchState persists the full ranked candidate list so a later wave can
// be promoted without recomputation.
type DispatchState struct {
	Candidates    []Candidate `bson:"candidates" json:"candidates"`
	Wave          int         `bson:"wave" json:"wave"`
	WaveStartedAt time.Time   `bson:"waveStartedAt" json:"waveStartedAt"`
	Notified      []string    `bson:"notified" json:"notified"`
	Rejected      []string    `bson:"rejected,omitempty" json:"-"`
}

// Booking is the central lifecycle record. Verification codes are write-once
// secrets: they are omitted from every JSON view and cleared on successful use.
type Booking struct {
	ID         string `bson:"id" json:"id"`
	BookingNo  string `bson:"bookingNo" json:"bookingNo"`
	CustomerID string `bson:"customerId" json:"customerId"`
	ProviderID string `bson:"providerId,omitempty" json:"providerId,omitempty"`

	Assignment WorkerAssignment `bson:"assignment" json:"assignment"`

	ServiceCategory string   `bson:"serviceCategory" json:"serviceCategory"`
	Location        GeoPoint `bson:"location" json:"location"`
	Address         string   `bson:"address" json:"address"`
	Description     string   `bson:"description,omitempty" json:"description,omitempty"`

	Status   BookingStatus   `bson:"status" json:"status"`
	Pricing  PricingSnapshot `bson:"pricing" json:"pricing"`
	Dispatch DispatchState   `bson:"dispatch" json:"dispatch"`

	PaymentMethod string `bson:"paymentMethod" json:"paymentMethod"` // "cash" or "card"
	PaymentStatus string `bson:"paymentStatus,omitempty" json:"paymentStatus,omitempty"`
	PaymentRef    string `bson:"paymentRef,omitempty" json:"paymentRef,omitempty"`

	VisitCode   string `bson:"visitCode,omitempty" json:"-"`
	PaymentCode string `bson:"paymentCode,omitempty" json:"-"`

	// Set once by the wallet adjuster; protect against double-crediting on retry.
	EarningsCredited bool `bson:"earningsCredited" json:"-"`
	CashRecorded     bool `bson:"cashRecorded" json:"-"`

	CancelReason string `bson:"cancelReason,omitempty" json:"cancelReason,omitempty"`

	CreatedAt        time.Time  `bson:"createdAt" json:"createdAt"`
	AcceptedAt       *time.Time `bson:"acceptedAt,omitempty" json:"acceptedAt,omitempty"`
	AssignedAt       *time.Time `bson:"assignedAt,omitempty" json:"assignedAt,omitempty"`
	JourneyStartedAt *time.Time `bson:"journeyStartedAt,omitempty" json:"journeyStartedAt,omitempty"`
	VisitedAt        *time.Time `bson:"visitedAt,omitempty" json:"visitedAt,omitempty"`
	WorkDoneAt       *time.Time `bson:"workDoneAt,omitempty" json:"workDoneAt,omitempty"`
	CompletedAt      *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CancelledAt      *time.Time `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
}

// PerformerID returns the party expected to advance physical milestones.
func (b *Booking) PerformerID() string {
	if b.Assignment.Mode == AssignmentWorker {
		return b.Assignment.WorkerID
	}
	return b.ProviderID
}
