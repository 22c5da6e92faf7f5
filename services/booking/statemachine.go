package booking

import "fixserv/models"

// roleSet is the set of actor roles allowed to request a transition.
type roleSet map[models.ActorRole]bool

// transitionTable is the single source of truth for every status change,
// keyed by current status then requested status. Every entry point goes
// through ValidateTransition; no handler carries its own rules.
var transitionTable = map[models.BookingStatus]map[models.BookingStatus]roleSet{
	models.StatusSearching: {
		models.StatusRequested: {models.RoleProvider: true, models.RoleAdmin: true}, // wave notify
		models.StatusConfirmed: {models.RoleProvider: true},
		models.StatusRejected:  {models.RoleProvider: true},
		models.StatusCancelled: {models.RoleCustomer: true, models.RoleAdmin: true},
	},
	models.StatusRequested: {
		models.StatusConfirmed: {models.RoleProvider: true},
		models.StatusRejected:  {models.RoleProvider: true},
		models.StatusCancelled: {models.RoleCustomer: true, models.RoleAdmin: true},
	},
	models.StatusConfirmed: {
		models.StatusAssigned:  {models.RoleProvider: true},
		models.StatusCancelled: {models.RoleCustomer: true, models.RoleAdmin: true},
	},
	models.StatusAssigned: {
		models.StatusJourneyStarted: {models.RoleProvider: true, models.RoleWorker: true},
		models.StatusCancelled:      {models.RoleCustomer: true, models.RoleAdmin: true},
	},
	models.StatusJourneyStarted: {
		models.StatusVisited:   {models.RoleProvider: true, models.RoleWorker: true},
		models.StatusCancelled: {models.RoleCustomer: true, models.RoleAdmin: true},
	},
	models.StatusVisited: {
		models.StatusInProgress: {models.RoleProvider: true, models.RoleWorker: true},
		models.StatusWorkDone:   {models.RoleProvider: true, models.RoleWorker: true},
		models.StatusCancelled:  {models.RoleCustomer: true, models.RoleAdmin: true},
	},
	models.StatusInProgress: {
		models.StatusWorkDone:  {models.RoleProvider: true, models.RoleWorker: true},
		models.StatusCancelled: {models.RoleCustomer: true, models.RoleAdmin: true},
	},
	models.StatusWorkDone: {
		// The performer completes on cash handover; the customer completes
		// once an online payment succeeded.
		models.StatusCompleted: {models.RoleProvider: true, models.RoleWorker: true, models.RoleCustomer: true},
		models.StatusCancelled: {models.RoleCustomer: true, models.RoleAdmin: true},
	},
	// Terminal states have no outgoing edges.
	models.StatusCompleted: {},
	models.StatusCancelled: {},
	models.StatusRejected:  {},
}

// ValidateTransition checks whether role may move a booking from current to
// target. An invalid request returns a typed error and never silently no-ops.
func ValidateTransition(bookingID string, current, target models.BookingStatus, role models.ActorRole) error {
	next, ok := transitionTable[current]
	if !ok {
		return &InvalidTransitionError{BookingID: bookingID, Current: current, Requested: target, Role: role}
	}
	roles, ok := next[target]
	if !ok || !roles[role] {
		return &InvalidTransitionError{BookingID: bookingID, Current: current, Requested: target, Role: role}
	}
	return nil
}

// acceptableFrom are the states an acceptance claim may start from.
var acceptableFrom = []models.BookingStatus{models.StatusSearching, models.StatusRequested}
