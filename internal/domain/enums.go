package domain

// SessionStatus represents the lifecycle of a review session.
type SessionStatus string

const (
	SessionStatusOpen      SessionStatus = "open"
	SessionStatusPaid      SessionStatus = "paid"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// FeedbackStatus represents the delivery state of a feedback submission.
type FeedbackStatus string

const (
	FeedbackStatusPending    FeedbackStatus = "pending"
	FeedbackStatusProcessing FeedbackStatus = "processing"
	FeedbackStatusDelivered  FeedbackStatus = "delivered"
	FeedbackStatusFailed     FeedbackStatus = "failed"
)

// ExportFormat is a supported line item export format.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatXLSX ExportFormat = "xlsx"
)

// ExportContentTypes maps export formats to their MIME content type.
var ExportContentTypes = map[ExportFormat]string{
	ExportFormatCSV:  "text/csv; charset=utf-8",
	ExportFormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}
