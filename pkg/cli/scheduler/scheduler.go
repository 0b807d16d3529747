/* Copyright 2025 Vylite Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package scheduler triggers periodic sync cycles. Besides the interval
// timer, callers request an immediate cycle after local mutations so that
// changes do not wait for the next tick.
package scheduler

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/robfig/cron"
	"github.com/vylite/vylite/pkg/cli/log"
)

// Job is the unit of work the scheduler triggers
type Job func()

// Scheduler fires the job on a fixed interval and on demand
type Scheduler struct {
	job     Job
	c       *cron.Cron
	running bool
}

// New returns a scheduler that fires the job every intervalMinutes
func New(job Job, intervalMinutes int) (*Scheduler, error) {
	if intervalMinutes <= 0 {
		return nil, errors.Errorf("invalid sync interval %d", intervalMinutes)
	}

	s := &Scheduler{
		job: job,
		c:   cron.New(),
	}

	spec := fmt.Sprintf("@every %dm", intervalMinutes)
	if err := s.c.AddFunc(spec, s.tick); err != nil {
		return nil, errors.Wrap(err, "registering the sync schedule")
	}

	return s, nil
}

// Start begins firing on the interval. Starting a started scheduler is a
// no-op.
func (s *Scheduler) Start() {
	if s.running {
		return
	}

	s.c.Start()
	s.running = true
}

// Stop halts the interval timer. A cycle already in flight is not
// interrupted.
func (s *Scheduler) Stop() {
	if !s.running {
		return
	}

	s.c.Stop()
	s.running = false
}

// TriggerNow fires a cycle immediately, outside the interval schedule
func (s *Scheduler) TriggerNow() {
	s.tick()
}

func (s *Scheduler) tick() {
	log.Debug("scheduler firing a sync cycle\n")
	s.job()
}
