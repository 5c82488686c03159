// Package bookingv1 holds the booking.v1 wire messages. They travel as JSON
// over gRPC (content subtype "json") and over the HTTP gateway alike.
package bookingv1

// Appointment times are RFC 3339; Date and Slot repeat the clinic-local
// day and slot label the appointment was booked under.
type Appointment struct {
	ID        string `json:"id"`
	PatientID string `json:"patientId"`
	DoctorID  string `json:"doctorId"`
	DateTime  string `json:"dateTime"`
	Date      string `json:"date"`
	Slot      string `json:"slot"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"createdAt"`
}

type ReserveSlotRequest struct {
	DoctorID string `json:"doctorId"`
	// Date is YYYY-MM-DD in the clinic's time zone.
	Date  string `json:"date"`
	Slot  string `json:"slot"`
	Type  string `json:"type"`
	Notes string `json:"notes,omitempty"`
}

type ReserveSlotResponse struct {
	Appointment *Appointment `json:"appointment"`
}

type GetAvailabilityRequest struct {
	DoctorID string `json:"doctorId"`
	Date     string `json:"date"`
}

type SlotStatus struct {
	Slot      string `json:"slot"`
	DateTime  string `json:"dateTime"`
	Available bool   `json:"available"`
}

type GetAvailabilityResponse struct {
	DoctorID string        `json:"doctorId"`
	Date     string        `json:"date"`
	Slots    []*SlotStatus `json:"slots"`
}

// From and To take a date (YYYY-MM-DD) or an RFC 3339 timestamp. Both
// bounds are inclusive; a bare To date covers that whole day.
type ListAppointmentsRequest struct {
	Status string `json:"status,omitempty"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
}

type ListAppointmentsResponse struct {
	Appointments []*Appointment `json:"appointments"`
}

type GetAppointmentRequest struct {
	ID string `json:"id"`
}

type GetAppointmentResponse struct {
	Appointment *Appointment `json:"appointment"`
}

type CancelAppointmentRequest struct {
	ID string `json:"id"`
}

type CancelAppointmentResponse struct {
	Appointment *Appointment `json:"appointment"`
}
