// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq

import "code.hybscloud.com/atomix"

// side tracks the number of live handles on one side (producer or
// consumer) of a channel. Each live handle of that side contributes 1;
// when the count reaches 0, the other side's next operation observes
// that as disconnection (§4.8).
type side struct {
	_     pad
	count atomix.Int64
	_     pad
}

func (s *side) init() {
	s.count.StoreRelaxed(1)
}

// clone registers one additional live handle on this side.
func (s *side) clone() {
	s.count.AddAcqRel(1)
}

// drop unregisters a handle on this side and reports whether this was
// the last live handle of that side (count reached zero).
func (s *side) drop() (last bool) {
	return s.count.AddAcqRel(-1) == 0
}

// alive reports whether at least one handle of this side is still live.
func (s *side) alive() bool {
	return s.count.LoadAcquire() > 0
}

// drainer is implemented by the internal core of every queue variant so
// that the last handle to close, having observed that both sides have
// reached zero live handles, can release whatever the core is still
// holding. This plays the role a Drop impl would in a language with
// deterministic destructors: drain all remaining items and free
// storage. Go has no such destructors, so handle-close is the only
// place such a release can happen deterministically.
type drainer interface {
	drainAndRelease()
}

// lifecycle embeds the producer/consumer handle counts shared by every
// queue variant's internal core, plus a one-shot guard so that
// concurrent Close calls on the last producer handle and the last
// consumer handle can't both observe "both sides empty" and run
// drainAndRelease twice.
type lifecycle struct {
	producers side
	consumers side
	released  atomix.Uint64 // 0 = not yet released, 1 = released
}

func (l *lifecycle) init() {
	l.producers.init()
	l.consumers.init()
}

// closeProducer drops one producer handle and, if this closed out both
// sides, releases core exactly once.
func (l *lifecycle) closeProducer(core drainer) {
	last := l.producers.drop()
	if last && !l.consumers.alive() {
		l.release(core)
	}
}

// closeConsumer is the mirror of closeProducer for the consumer side.
func (l *lifecycle) closeConsumer(core drainer) {
	last := l.consumers.drop()
	if last && !l.producers.alive() {
		l.release(core)
	}
}

func (l *lifecycle) release(core drainer) {
	if l.released.CompareAndSwapAcqRel(0, 1) {
		core.drainAndRelease()
	}
}
