package service

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/isheraz/stroll-test/internal/cycle"
)

const (
	ProfilesTTL = 300 * time.Second
	AnswersTTL  = 600 * time.Second
)

// QuestionKey is question:<region>:<cycle>[:<type>]. The type suffix is left off
// for the legacy assign_question lookups, which are always weekly.
func QuestionKey(region string, cycleNumber int, t cycle.Type) string {
	key := "question:" + region + ":" + strconv.Itoa(cycleNumber)
	if t != "" {
		key += ":" + string(t)
	}
	return key
}

// QuestionTTL keeps a question cached for as long as its cycle lasts.
func QuestionTTL(t cycle.Type, fallbackDays int) time.Duration {
	if ttl := t.TTL(); ttl > 0 {
		return ttl
	}
	return time.Duration(fallbackDays) * 24 * time.Hour
}

// ProfilesKey is profiles:<gender>:<excludeUserID>:<types|all>.
func ProfilesKey(gender, excludeUserID string, profileTypes []string) string {
	filter := "all"
	if norm := NormalizeProfileTypes(profileTypes); len(norm) > 0 {
		filter = strings.Join(norm, ",")
	}
	return "profiles:" + gender + ":" + excludeUserID + ":" + filter
}

// AnswersKey is answers:<userID>.
func AnswersKey(userID string) string {
	return "answers:" + userID
}

// NormalizeProfileTypes trims, drops blanks, de-duplicates and sorts, so that
// equivalent filters share one cache entry.
func NormalizeProfileTypes(types []string) []string {
	seen := make(map[string]struct{}, len(types))
	out := make([]string, 0, len(types))
	for _, t := range types {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
