// Copyright (c) 2026 Lorekeep. All rights reserved.

package auth

import "strings"

// # Resource Policy

// Policy states which actions on a resource may skip authentication.
//
// A policy is set once when the resource's routes are registered and is
// read-only afterwards.
type Policy struct {
	exemptAll bool
	exempt    map[string]struct{}
}

// RequireAll returns a policy that authenticates every action.
func RequireAll() Policy {
	return Policy{}
}

// ExemptAll returns a policy that authenticates nothing.
func ExemptAll() Policy {
	return Policy{exemptAll: true}
}

// ExemptActions returns a policy that authenticates everything except the
// named actions.
func ExemptActions(actions ...string) Policy {
	exempt := make(map[string]struct{}, len(actions))
	for _, action := range actions {
		exempt[action] = struct{}{}
	}
	return Policy{exempt: exempt}
}

// Exempts reports whether the given action may proceed unauthenticated.
func (policy Policy) Exempts(action string) bool {
	if policy.exemptAll {
		return true
	}
	_, ok := policy.exempt[action]
	return ok
}

// ActionFromPath derives an action name from the final segment of a URL
// path, so policies can be declared against route names rather than full
// paths. "/v1/auth/login" and "/v1/auth/login/" both yield "login".
func ActionFromPath(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return ""
	}
	if idx := strings.LastIndexByte(trimmed, '/'); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}
