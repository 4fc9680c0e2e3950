package mail

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       string
}

type AlertEmailData struct {
	Kind       string
	Email      string
	LeadID     string
	RetryCount int
	RunID      string
	Error      string
	OccurredAt string
}
