// Licensed to Elasticsearch B.V. under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. Elasticsearch B.V. licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Package processing supports pre-append entry enrichment, the audit-log
// analogue of the teacher's beat.Processor pipeline: a SupportFactory
// builds a Supporter from configuration, and the Supporter creates the
// chain of Processors the manager runs over every entry before it
// reaches the queue.
package processing

import (
	"github.com/elastic/elastic-agent-libs/config"
	"github.com/elastic/elastic-agent-libs/logp"

	"github.com/njcx/auditlogd/entry"
)

// Processor transforms one entry, e.g. attaching controller/processor
// identifiers or computing a chaining hash, before it is enqueued.
type Processor interface {
	Process(e entry.Entry) (entry.Entry, error)
}

// ProcessorFunc adapts a plain function to Processor.
type ProcessorFunc func(e entry.Entry) (entry.Entry, error)

func (f ProcessorFunc) Process(e entry.Entry) (entry.Entry, error) { return f(e) }

// SupportFactory builds a Supporter from global configuration, mirroring
// the teacher's processing.SupportFactory signature with beat.Info
// dropped (auditlogd has no beat identity to thread through).
type SupportFactory func(log *logp.Logger, cfg *config.C) (Supporter, error)

// Supporter creates the running processor chain for a manager instance.
// Close releases any resources the chain's processors hold.
type Supporter interface {
	Create() (Processor, error)
	Close() error
}

// Chain composes Processors in order, short-circuiting on the first
// error (spec §9-adjacent: producers own their own enrichment, the
// engine itself stays opinion-free about entry contents).
type Chain []Processor

func (c Chain) Process(e entry.Entry) (entry.Entry, error) {
	var err error
	for _, p := range c {
		e, err = p.Process(e)
		if err != nil {
			return entry.Entry{}, err
		}
	}
	return e, nil
}

// staticSupporter is the simplest Supporter: a fixed, already-built Chain.
type staticSupporter struct{ chain Chain }

// NewStaticSupportFactory returns a SupportFactory that always hands back
// the same processor chain, ignoring per-call config — useful when the
// enrichment chain is built once from flags/environment rather than from
// a config.C.
func NewStaticSupportFactory(chain Chain) SupportFactory {
	return func(_ *logp.Logger, _ *config.C) (Supporter, error) {
		return staticSupporter{chain: chain}, nil
	}
}

func (s staticSupporter) Create() (Processor, error) { return s.chain, nil }
func (s staticSupporter) Close() error                { return nil }
