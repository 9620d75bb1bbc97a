/*
 * Copyright 2025 Ted Dunning
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package si5351

import "errors"

// Code identifies the kind of a failure. It is comparable and implements
// error, so errors.Is(err, ParameterOutOfRange) works on wrapped errors.
type Code string

func (c Code) Error() string { return string(c) }

const (
	OK                   Code = "ok"
	ParameterOutOfRange  Code = "parameter_out_of_range"
	PrerequisiteNotMet   Code = "prerequisite_not_met"
	BusTransactionFailed Code = "bus_transaction_failed"
)

// E carries the operation and, for bus failures, the transport error.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := "si5351: " + e.Op + ": " + string(e.C)
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is matches a bare Code so callers need not unwrap.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Of extracts the Code from an error, looking through wrapping. Errors from
// outside this package report BusTransactionFailed since they can only come
// from the transport.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	var e *E
	if errors.As(err, &e) {
		return e.C
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	return BusTransactionFailed
}

func outOfRange(op, msg string) error {
	return &E{C: ParameterOutOfRange, Op: op, Msg: msg}
}

func notReady(op, msg string) error {
	return &E{C: PrerequisiteNotMet, Op: op, Msg: msg}
}

func busError(op string, err error) error {
	return &E{C: BusTransactionFailed, Op: op, Err: err}
}
