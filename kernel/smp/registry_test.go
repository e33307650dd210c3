package smp

import "testing"

func TestRegistryZeroValue(t *testing.T) {
	var reg Registry

	if exp, got := 1, reg.CoreCount(); got != exp {
		t.Fatalf("expected core count to be %d; got %d", exp, got)
	}

	if got := reg.State(0); got != StateAbsent {
		t.Fatalf("expected slot 0 to be %s; got %s", StateAbsent, got)
	}

	if _, ok := reg.Domain(0); ok {
		t.Fatal("expected domain of unregistered slot to be unknown")
	}

	if snap := reg.Snapshot(); snap.CoreCount != 1 || len(snap.Cores) != 0 {
		t.Fatalf("unexpected snapshot for empty registry: %+v", snap)
	}
}

func TestRegistryRegister(t *testing.T) {
	var reg Registry

	if err := reg.MarkOnlineBootstrap(2); err != nil {
		t.Fatal(err)
	}

	for _, id := range []uint32{0, 5, 1} {
		if err := reg.Register(id); err != nil {
			t.Fatalf("unexpected error registering core %d: %v", id, err)
		}
	}

	if err := reg.Register(5); err != errAlreadyRegistered {
		t.Fatalf("expected to get errAlreadyRegistered; got %v", err)
	}

	if err := reg.Register(MaxCores); err != errInvalidAPICID {
		t.Fatalf("expected to get errInvalidAPICID; got %v", err)
	}

	if err := reg.MarkOnlineBootstrap(MaxCores + 1); err != errInvalidAPICID {
		t.Fatalf("expected to get errInvalidAPICID; got %v", err)
	}

	if exp, got := 4, reg.CoreCount(); got != exp {
		t.Fatalf("expected core count to be %d; got %d", exp, got)
	}

	specs := []struct {
		apicID uint32
		exp    State
	}{
		{2, StateOnline},
		{0, StateOffline},
		{5, StateOffline},
		{1, StateOffline},
		{3, StateAbsent},
		{MaxCores, StateAbsent},
	}

	for specIndex, spec := range specs {
		if got := reg.State(spec.apicID); got != spec.exp {
			t.Errorf("[spec %d] expected core %d to be %s; got %s", specIndex, spec.apicID, spec.exp, got)
		}
	}

	snap := reg.Snapshot()
	expOrder := []uint32{2, 0, 5, 1}
	if len(snap.Cores) != len(expOrder) {
		t.Fatalf("expected snapshot to contain %d cores; got %d", len(expOrder), len(snap.Cores))
	}
	for i, exp := range expOrder {
		if got := snap.Cores[i].APICID; got != exp {
			t.Errorf("expected snapshot entry %d to have APIC ID %d; got %d", i, exp, got)
		}
	}
}

func TestRegistryMarkOnlineBootstrapAfterRegister(t *testing.T) {
	var reg Registry

	if err := reg.Register(3); err != nil {
		t.Fatal(err)
	}

	if err := reg.MarkOnlineBootstrap(3); err != nil {
		t.Fatal(err)
	}

	if got := reg.State(3); got != StateOnline {
		t.Fatalf("expected core to be online; got %s", got)
	}

	if exp, got := 1, reg.CoreCount(); got != exp {
		t.Fatalf("expected core count to be %d; got %d", exp, got)
	}

	if err := reg.MarkOnlineBootstrap(3); err != errBadTransition {
		t.Fatalf("expected to get errBadTransition; got %v", err)
	}
}

func TestRegistryDomain(t *testing.T) {
	var reg Registry

	if err := reg.SetDomain(1, 0); err != errNotRegistered {
		t.Fatalf("expected to get errNotRegistered; got %v", err)
	}

	reg.MarkOnlineBootstrap(0)
	reg.Register(1)
	reg.Register(2)

	if err := reg.SetDomain(1, 0); err != nil {
		t.Fatal(err)
	}
	if err := reg.SetDomain(2, 0xffffffff); err != nil {
		t.Fatal(err)
	}

	specs := []struct {
		apicID    uint32
		expDomain uint32
		expKnown  bool
	}{
		{0, 0, false},
		{1, 0, true},
		{2, 0xffffffff, true},
		{MaxCores, 0, false},
	}

	for specIndex, spec := range specs {
		domain, known := reg.Domain(spec.apicID)
		if domain != spec.expDomain || known != spec.expKnown {
			t.Errorf("[spec %d] expected domain (%d, %t); got (%d, %t)", specIndex, spec.expDomain, spec.expKnown, domain, known)
		}
	}

	snap := reg.Snapshot()
	if snap.Cores[0].HasDomain || !snap.Cores[1].HasDomain || snap.Cores[2].Domain != 0xffffffff {
		t.Fatalf("unexpected snapshot contents: %+v", snap.Cores)
	}
}

func TestRegistryReportOnline(t *testing.T) {
	defer func(origPause func()) {
		pauseFn = origPause
	}(pauseFn)

	t.Run("unregistered", func(t *testing.T) {
		var reg Registry
		if err := reg.ReportOnline(4); err != errNotRegistered {
			t.Fatalf("expected to get errNotRegistered; got %v", err)
		}
	})

	t.Run("already online", func(t *testing.T) {
		var reg Registry
		reg.MarkOnlineBootstrap(0)
		if err := reg.ReportOnline(0); err != errBadTransition {
			t.Fatalf("expected to get errBadTransition; got %v", err)
		}
	})

	t.Run("waits for launch", func(t *testing.T) {
		var (
			reg    Registry
			pauses int
		)
		reg.Register(1)

		// Emulate the launching core publishing the launched state while
		// the target is spinning.
		pauseFn = func() {
			pauses++
			if pauses == 3 {
				reg.transition(1, StateOffline, StateLaunched)
			}
		}

		if err := reg.ReportOnline(1); err != nil {
			t.Fatal(err)
		}

		if pauses != 3 {
			t.Fatalf("expected ReportOnline to spin 3 times; spun %d times", pauses)
		}

		if got := reg.State(1); got != StateOnline {
			t.Fatalf("expected core to be online; got %s", got)
		}
	})
}

func TestStateString(t *testing.T) {
	specs := []struct {
		state State
		exp   string
	}{
		{StateAbsent, "absent"},
		{StateOffline, "offline"},
		{StateLaunched, "launched"},
		{StateOnline, "online"},
		{State(42), "absent"},
	}

	for specIndex, spec := range specs {
		if got := spec.state.String(); got != spec.exp {
			t.Errorf("[spec %d] expected %q; got %q", specIndex, spec.exp, got)
		}
	}
}
