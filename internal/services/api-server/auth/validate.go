package auth

import (
	"regexp"
	"strings"
)

var emailRe = regexp.MustCompile(`^\S+@\S+\.\S+$`)

func ValidEmail(s string) bool { return emailRe.MatchString(s) }

func validateSignUp(name, email, password string) []string {
	var errs []string
	if len(strings.TrimSpace(name)) < 2 {
		errs = append(errs, "Name must be at least 2 characters long")
	}
	if !ValidEmail(email) {
		errs = append(errs, "Valid email is required")
	}
	if len(password) < 6 {
		errs = append(errs, "Password must be at least 6 characters long")
	}
	return errs
}

func validateLogin(email, password string) []string {
	var errs []string
	if !ValidEmail(email) {
		errs = append(errs, "Valid email is required")
	}
	if password == "" {
		errs = append(errs, "Password is required")
	}
	return errs
}
