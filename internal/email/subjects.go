package email

const (
	subjectVerificationCode = "Your verification code"
	subjectReportReady      = "Your quote report is ready"
)
