// Copyright 2024 The Heapbridge Authors
// This file is part of Heapbridge.
//
// Heapbridge is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Heapbridge is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Heapbridge. If not, see <http://www.gnu.org/licenses/>.

package bridge

import (
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
)

// Sentinel errors forming the admin-command error taxonomy.
var (
	ErrBadValue        = errors.New("BadValue")
	ErrTypeMismatch    = errors.New("TypeMismatch")
	ErrCommandNotFound = errors.New("CommandNotFound")
	ErrOperationFailed = errors.New("OperationFailed")
)

// Command is a single admin command, dispatched by name, that mutates the
// policy table on the goroutine that received it.
type Command interface {
	Run(args bson.Raw, table *PolicyTable) error
}

// CommandRegistry maps admin command names to their handlers, populated
// once at startup.
type CommandRegistry map[string]Command

// NewCommandRegistry returns the registry carrying the three host-policy
// admin commands.
func NewCommandRegistry() CommandRegistry {
	return CommandRegistry{
		"delayMessagesFrom":     delayMessagesFromCommand{},
		"acceptConnectionsFrom": acceptConnectionsFromCommand{},
		"rejectConnectionsFrom": rejectConnectionsFromCommand{},
	}
}

// Lookup returns the named command, or ErrCommandNotFound.
func (r CommandRegistry) Lookup(name string) (Command, error) {
	cmd, ok := r[name]
	if !ok {
		return nil, errors.Wrapf(ErrCommandNotFound, "unknown command: %s", name)
	}
	return cmd, nil
}

func requiredStringField(args bson.Raw, field string) (string, error) {
	v, err := args.LookupErr(field)
	if err != nil {
		return "", errors.Wrapf(ErrBadValue, "missing required field %q", field)
	}
	s, ok := v.StringValueOK()
	if !ok {
		return "", errors.Wrapf(ErrTypeMismatch, "field %q must be a string", field)
	}
	return s, nil
}

func requiredNumberField(args bson.Raw, field string) (int64, error) {
	v, err := args.LookupErr(field)
	if err != nil {
		return 0, errors.Wrapf(ErrBadValue, "missing required field %q", field)
	}
	switch v.Type {
	case bson.TypeInt32:
		return int64(v.Int32()), nil
	case bson.TypeInt64:
		return v.Int64(), nil
	case bson.TypeDouble:
		return int64(v.Double()), nil
	default:
		return 0, errors.Wrapf(ErrTypeMismatch, "field %q must be a number", field)
	}
}

type delayMessagesFromCommand struct{}

func (delayMessagesFromCommand) Run(args bson.Raw, table *PolicyTable) error {
	host, err := requiredStringField(args, "host")
	if err != nil {
		return err
	}
	delay, err := requiredNumberField(args, "delay")
	if err != nil {
		return err
	}
	table.SetDelay(host, time.Duration(delay)*time.Millisecond)
	return nil
}

type acceptConnectionsFromCommand struct{}

func (acceptConnectionsFromCommand) Run(args bson.Raw, table *PolicyTable) error {
	host, err := requiredStringField(args, "host")
	if err != nil {
		return err
	}
	table.SetAccept(host)
	return nil
}

type rejectConnectionsFromCommand struct{}

func (rejectConnectionsFromCommand) Run(args bson.Raw, table *PolicyTable) error {
	host, err := requiredStringField(args, "host")
	if err != nil {
		return err
	}
	table.SetReject(host)
	return nil
}
