// Package notify delivers natours email.
//
// SMTPNotifier sends synchronously through gomail and backs the
// password-reset flow. WelcomeQueue hands the welcome mail to an asynq
// worker so signup never waits on SMTP.
package notify
