package contract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
)

// Redacted is the placeholder the service returns instead of a password.
const Redacted = "<redacted>"

// Env is the state shared by checks in one run.
type Env struct {
	Client   *Client
	Fixtures *Fixtures
	Existing ExistingUser
}

// Check is a single contract property.
type Check struct {
	ID  string
	Run func(ctx context.Context, env *Env) error
}

// Checks returns every contract check in execution order.
func Checks() []Check {
	return []Check{
		{ID: "users/look-up-existing", Run: checkLookUpExisting},
		{ID: "users/look-up-non-existing", Run: checkLookUpNonExisting},
		{ID: "users/create", Run: checkCreate},
		{ID: "users/reject-duplicate", Run: checkRejectDuplicate},
		{ID: "users/update", Run: checkUpdate},
		{ID: "users/update-wrong-credentials", Run: checkUpdateWrongCredentials},
	}
}

func checkLookUpExisting(ctx context.Context, env *Env) error {
	resp, err := env.Client.GetUser(ctx, env.Existing.ID)
	if err != nil {
		return err
	}
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}
	return expectBody(resp, Overlay(env.Existing.Record(), Record{"password": Redacted}))
}

func checkLookUpNonExisting(ctx context.Context, env *Env) error {
	resp, err := env.Client.GetUser(ctx, NonExistingUserID)
	if err != nil {
		return err
	}
	if err := expectStatus(resp, http.StatusNotFound); err != nil {
		return err
	}
	return expectBody(resp, Record{"error": "User ID not found"})
}

func checkCreate(ctx context.Context, env *Env) error {
	newUser := env.Fixtures.NewUser()
	resp, err := env.Client.CreateUser(ctx, newUser)
	if err != nil {
		return err
	}
	if err := expectStatus(resp, http.StatusCreated); err != nil {
		return err
	}
	if resp.HasError() {
		return fmt.Errorf("unexpected error in body: %s", resp.Raw)
	}
	id, err := IntField(resp.Object(), "userId")
	if err != nil {
		return err
	}
	return expectUser(ctx, env, id, Overlay(newUser, Record{"userId": id, "password": Redacted}))
}

func checkRejectDuplicate(ctx context.Context, env *Env) error {
	duplicate := Overlay(Without(env.Existing.Record(), "userId"), env.Fixtures.RandomName())
	resp, err := env.Client.CreateUser(ctx, duplicate)
	if err != nil {
		return err
	}
	if err := expectStatus(resp, http.StatusBadRequest); err != nil {
		return err
	}
	if err := expectBody(resp, Record{"error": "Email already registered", "email": env.Existing.Fields["email"]}); err != nil {
		return err
	}
	return expectUser(ctx, env, env.Existing.ID, Overlay(env.Existing.Record(), Record{"password": Redacted}))
}

func checkUpdate(ctx context.Context, env *Env) error {
	newUser := env.Fixtures.NewUser()
	id, err := env.Client.MustCreate(ctx, newUser)
	if err != nil {
		return err
	}

	changes := Overlay(env.Fixtures.RandomName(), env.Fixtures.RandomEmail())
	resp, err := env.Client.UpdateUser(ctx, id, newUser["email"].(string), newUser["password"].(string), changes)
	if err != nil {
		return err
	}
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}
	if err := expectBody(resp, Record{"updated": 1}); err != nil {
		return err
	}

	want := Overlay(newUser, changes)
	return expectUser(ctx, env, id, Overlay(want, Record{"userId": id, "password": Redacted}))
}

func checkUpdateWrongCredentials(ctx context.Context, env *Env) error {
	newUser := env.Fixtures.NewUser()
	id, err := env.Client.MustCreate(ctx, newUser)
	if err != nil {
		return err
	}

	resp, err := env.Client.UpdateUser(ctx, id, newUser["email"].(string), "not-"+newUser["password"].(string), env.Fixtures.RandomName())
	if err != nil {
		return err
	}
	if err := expectStatus(resp, http.StatusUnauthorized); err != nil {
		return err
	}
	if err := expectBody(resp, Record{"error": "Invalid credentials"}); err != nil {
		return err
	}
	return expectUser(ctx, env, id, Overlay(newUser, Record{"userId": id, "password": Redacted}))
}

func expectUser(ctx context.Context, env *Env, id int64, want Record) error {
	resp, err := env.Client.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return fmt.Errorf("read back user %d: %w", id, err)
	}
	if err := expectBody(resp, want); err != nil {
		return fmt.Errorf("read back user %d: %w", id, err)
	}
	return nil
}

func expectStatus(resp *Response, want int) error {
	if resp.Status != want {
		return fmt.Errorf("expected status %d, got %d: %s", want, resp.Status, bytes.TrimSpace(resp.Raw))
	}
	return nil
}

// expectBody compares the response body with want as JSON values.
func expectBody(resp *Response, want any) error {
	got, err := normalize(resp.Body)
	if err != nil {
		return err
	}
	exp, err := normalize(want)
	if err != nil {
		return err
	}
	if !reflect.DeepEqual(got, exp) {
		wantRaw, _ := json.Marshal(want)
		return fmt.Errorf("expected body %s, got %s", wantRaw, bytes.TrimSpace(resp.Raw))
	}
	return nil
}

func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
