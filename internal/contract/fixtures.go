package contract

import (
	"context"
	"fmt"
	"math/rand/v2"
)

// NonExistingUserID is never assigned by a freshly seeded service.
const NonExistingUserID int64 = 935098

// Record is a JSON object as sent to or received from the service.
type Record map[string]any

// Overlay returns the union of source and replacements, replacements winning.
func Overlay(source, replacements Record) Record {
	out := make(Record, len(source)+len(replacements))
	for k, v := range source {
		out[k] = v
	}
	for k, v := range replacements {
		out[k] = v
	}
	return out
}

// Without returns a copy of r lacking the given keys.
func Without(r Record, keys ...string) Record {
	out := Overlay(r, nil)
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Fixtures produces random request payloads.
type Fixtures struct {
	rnd *rand.Rand
}

// NewFixtures returns fixtures drawing from a generator seeded with seed.
func NewFixtures(seed uint64) *Fixtures {
	return &Fixtures{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// between returns a random integer in [lo, hi].
func (f *Fixtures) between(lo, hi int) int {
	return lo + f.rnd.IntN(hi-lo+1)
}

// NewUser is a complete, random create payload.
func (f *Fixtures) NewUser() Record {
	return Record{
		"firstName": fmt.Sprintf("New %x", f.between(1000, 984509)),
		"lastName":  fmt.Sprintf("User %x", f.between(1000, 984509)),
		"email":     fmt.Sprintf("new-%x@email.com", f.between(1000, 3049540)),
		"password":  fmt.Sprintf("pass-%x", f.between(753894, 3049540)),
	}
}

// RandomName is a payload changing only the first name.
func (f *Fixtures) RandomName() Record {
	return Record{"firstName": fmt.Sprintf("First_%x", f.between(1000, 984509))}
}

// RandomEmail is a payload changing only the email.
func (f *Fixtures) RandomEmail() Record {
	return Record{"email": fmt.Sprintf("foo_%x@bar.baz", f.between(1000, 984509))}
}

// ExistingUser is a user known to exist, with its plaintext password.
type ExistingUser struct {
	ID     int64
	Fields Record // firstName, lastName, email, password
}

// Record returns the user as the service would echo it before redaction.
func (u ExistingUser) Record() Record {
	return Overlay(u.Fields, Record{"userId": u.ID})
}

// SeedExistingUser creates a fresh user through the admin API.
func SeedExistingUser(ctx context.Context, c *Client, f *Fixtures) (ExistingUser, error) {
	fields := f.NewUser()
	id, err := c.MustCreate(ctx, fields)
	if err != nil {
		return ExistingUser{}, fmt.Errorf("seed existing user: %w", err)
	}
	return ExistingUser{ID: id, Fields: fields}, nil
}
