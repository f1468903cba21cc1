package auth

import "crypto/subtle"

// CronSecretHeader carries the shared secret used by trusted schedulers to
// invoke generation across all users.
const CronSecretHeader = "X-Cron-Secret"

// ValidCronSecret reports whether the presented secret matches the configured
// one. An empty configured secret disables the scheduler path entirely.
func ValidCronSecret(presented, configured string) bool {
	if configured == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(configured)) == 1
}
