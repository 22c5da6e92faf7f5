package handlers

import (
	"net/http"

	"fixserv/models"
	"fixserv/services/booking"
	"fixserv/services/payment"

	"github.com/gin-gonic/gin"
)

var BookingService booking.BookingService
var PaymentService payment.PaymentService

type createBookingInput struct {
	ServiceCategory string  `json:"serviceCategory" binding:"required"`
	Latitude        float64 `json:"latitude" binding:"required"`
	Longitude       float64 `json:"longitude" binding:"required"`
	Address         string  `json:"address"`
	Description     string  `json:"description"`
	PaymentMethod   string  `json:"paymentMethod" binding:"required"`
	BasePrice       int64   `json:"basePrice" binding:"required"`
	Discount        int64   `json:"discount"`
	Tax             int64   `json:"tax"`
	VisitingCharge  int64   `json:"visitingCharge"`
}

// CreateBooking creates a booking for the authenticated customer and starts
// dispatch.
func CreateBooking(c *gin.Context) {
	var input createBookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	actor := actorFrom(c)
	b, err := BookingService.CreateBooking(c.Request.Context(), booking.CreateBookingRequest{
		CustomerID:      actor.ID,
		ServiceCategory: input.ServiceCategory,
		Location:        models.NewGeoPoint(input.Longitude, input.Latitude),
		Address:         input.Address,
		Description:     input.Description,
		PaymentMethod:   input.PaymentMethod,
		BasePrice:       input.BasePrice,
		Discount:        input.Discount,
		Tax:             input.Tax,
		VisitingCharge:  input.VisitingCharge,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// GetBooking returns a single booking visible to the actor.
func GetBooking(c *gin.Context) {
	b, err := BookingService.GetBooking(c.Request.Context(), c.Param("id"), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// ListBookings returns the actor's bookings.
func ListBookings(c *gin.Context) {
	list, err := BookingService.ListBookings(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": list})
}

// AcceptBooking claims the booking for the authenticated provider.
func AcceptBooking(c *gin.Context) {
	b, err := BookingService.Accept(c.Request.Context(), c.Param("id"), actorFrom(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// RejectBooking records the provider's rejection.
func RejectBooking(c *gin.Context) {
	b, err := BookingService.Reject(c.Request.Context(), c.Param("id"), actorFrom(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// AssignWorker assigns the job to the provider themselves or a named worker.
func AssignWorker(c *gin.Context) {
	var input struct {
		WorkerID string `json:"workerId"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	b, err := BookingService.AssignWorker(c.Request.Context(), c.Param("id"), actorFrom(c).ID, input.WorkerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// StartJourney marks the performer en route.
func StartJourney(c *gin.Context) {
	b, err := BookingService.StartJourney(c.Request.Context(), c.Param("id"), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// VerifyVisit verifies the customer's visit code at the doorstep.
func VerifyVisit(c *gin.Context) {
	var input struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	b, err := BookingService.VerifyVisit(c.Request.Context(), c.Param("id"), actorFrom(c), input.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// StartWork marks the job in progress.
func StartWork(c *gin.Context) {
	b, err := BookingService.StartWork(c.Request.Context(), c.Param("id"), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// MarkWorkDone marks the job's work as finished, awaiting payment.
func MarkWorkDone(c *gin.Context) {
	b, err := BookingService.MarkWorkDone(c.Request.Context(), c.Param("id"), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// CollectCash verifies the payment code, credits the provider ledger and
// completes the booking.
func CollectCash(c *gin.Context) {
	var input struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	b, err := BookingService.CollectCash(c.Request.Context(), c.Param("id"), actorFrom(c), input.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// CreatePaymentIntent opens a card payment for the booking.
func CreatePaymentIntent(c *gin.Context) {
	info, err := PaymentService.CreateIntent(c.Request.Context(), c.Param("id"), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// CompleteOnline records the gateway outcome and, when the payment succeeded,
// completes the booking and credits earnings.
func CompleteOnline(c *gin.Context) {
	actor := actorFrom(c)
	id := c.Param("id")
	if _, err := PaymentService.SyncResult(c.Request.Context(), id, actor); err != nil {
		respondError(c, err)
		return
	}
	b, err := BookingService.CompleteOnline(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// CancelBooking cancels the booking on the customer's behalf.
func CancelBooking(c *gin.Context) {
	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	b, err := BookingService.Cancel(c.Request.Context(), c.Param("id"), actorFrom(c), input.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
