package application

import "expvar"

// Counters published under /debug/vars.
var (
	registrations = expvar.NewInt("skyport.registrations")
	confirmations = expvar.NewInt("skyport.confirmations")
	logins        = expvar.NewInt("skyport.logins")
	loginFailures = expvar.NewInt("skyport.login_failures")
	emailFailures = expvar.NewInt("skyport.email_failures")
)
