// Copyright (c) 2025 ToeiRei
// Acekeeper - Sequel Ace favorites backup tool
// This source code is licensed under the MIT license found in the LICENSE file.

package keychain

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type recordedCall struct {
	name string
	args []string
}

func fakeRunner(calls *[]recordedCall, out string, err error) func(context.Context, string, ...string) ([]byte, error) {
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, recordedCall{name: name, args: args})
		return []byte(out), err
	}
}

func TestSecurityStoreGet(t *testing.T) {
	var calls []recordedCall
	s := &SecurityStore{runner: fakeRunner(&calls, "hunter2\n", nil)}

	key := LookupKey{Service: "Sequel Ace : Prod (7)", Account: "alice@db.example.com/orders"}
	secret, err := s.Get(key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if secret != "hunter2" {
		t.Errorf("Get() = %q, want %q", secret, "hunter2")
	}

	if len(calls) != 1 {
		t.Fatalf("ran %d commands, want 1", len(calls))
	}
	want := []string{"find-generic-password", "-s", key.Service, "-a", key.Account, "-w"}
	if strings.Join(calls[0].args, " ") != strings.Join(want, " ") {
		t.Errorf("args = %v, want %v", calls[0].args, want)
	}
}

func TestSecurityStoreGetNotFound(t *testing.T) {
	var calls []recordedCall
	s := &SecurityStore{runner: fakeRunner(&calls,
		"security: SecKeychainSearchCopyNext: The specified item could not be found in the keychain.",
		errors.New("exit status 44"))}

	_, err := s.Get(LookupKey{Service: "svc", Account: "acct"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestSecurityStoreGetTransportFailure(t *testing.T) {
	var calls []recordedCall
	s := &SecurityStore{runner: fakeRunner(&calls,
		"security: unable to contact the keychain service",
		errors.New("exit status 1"))}

	_, err := s.Get(LookupKey{Service: "svc", Account: "acct"})
	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("Get() error = %v, want *StoreError", err)
	}
	if storeErr.Op != "get" {
		t.Errorf("StoreError.Op = %q, want %q", storeErr.Op, "get")
	}
}

func TestSecurityStoreSetGrantsTrustedApps(t *testing.T) {
	var calls []recordedCall
	s := &SecurityStore{
		TrustedApps: []string{"/Applications/Sequel Ace.app/Contents/MacOS/Sequel Ace"},
		runner:      fakeRunner(&calls, "", nil),
	}

	key := LookupKey{Service: "svc", Account: "acct"}
	if err := s.Set(key, "pw"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// Upsert runs a delete first, then the add.
	if len(calls) != 2 {
		t.Fatalf("ran %d commands, want 2", len(calls))
	}
	if calls[0].args[0] != "delete-generic-password" {
		t.Errorf("first command = %s, want delete-generic-password", calls[0].args[0])
	}

	add := strings.Join(calls[1].args, "\x00")
	if !strings.Contains(add, "add-generic-password") {
		t.Errorf("second command missing add-generic-password: %v", calls[1].args)
	}
	if !strings.Contains(add, "/Applications/Sequel Ace.app/Contents/MacOS/Sequel Ace") {
		t.Error("trusted app path not passed with -T")
	}
	if calls[1].args[len(calls[1].args)-1] != "-U" {
		t.Error("add-generic-password not invoked with -U upsert flag")
	}
}

func TestSecurityStoreDeleteNotFound(t *testing.T) {
	var calls []recordedCall
	s := &SecurityStore{runner: fakeRunner(&calls,
		"The specified item could not be found in the keychain.",
		errors.New("exit status 44"))}

	if err := s.Delete(LookupKey{Service: "svc", Account: "acct"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}
