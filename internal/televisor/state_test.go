package televisor

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/televisor/internal/feed"
	"github.com/rileyhilliard/televisor/internal/lifecycle"
	"github.com/rileyhilliard/televisor/internal/remote"
)

func primary(predio remote.Ident, fruta string) lifecycle.PrimaryLoaded {
	return lifecycle.PrimaryLoaded{Result: remote.Ok(remote.TelevisorRecord{
		ENF: "EF1-1", NombrePredio: "Finca", Predio: predio, TipoFruta: fruta,
	})}
}

func site(predio remote.Ident, yield float64) lifecycle.SiteResolved {
	return lifecycle.SiteResolved{Predio: predio, Result: remote.Ok(yieldLot(yield))}
}

func TestState_ApplySequence(t *testing.T) {
	var s State
	s = s.Apply(lifecycle.Mounted{})
	s = s.Apply(primary("p1", "Naranja"))
	s = s.Apply(site("p1", 82))
	s = s.Apply(lifecycle.ThroughputUpdated{Sample: feed.Sample{Processed: 64, Exported: 31}})
	s = s.Apply(lifecycle.Tick{Elapsed: 1})
	s = s.Apply(lifecycle.Tick{Elapsed: 2})

	require.NotNil(t, s.Record)
	assert.Equal(t, "Naranja", s.Record.TipoFruta)
	require.NotNil(t, s.Site)
	assert.Equal(t, 82.0, s.Site.Yield())
	assert.Equal(t, 64.0, s.Throughput.Processed)
	assert.Equal(t, 2, s.Elapsed)
	assert.Equal(t, remote.ActionLots, s.LastCall.Action)
	assert.Equal(t, remote.StatusOK, s.LastCall.Status)
}

func TestState_ApplyDoesNotModifyReceiver(t *testing.T) {
	var s State
	next := s.Apply(primary("p1", "Limon"))

	assert.Nil(t, s.Record)
	assert.NotNil(t, next.Record)
}

func TestState_MountedResets(t *testing.T) {
	s := State{Elapsed: 40, FeedError: "x"}.Apply(primary("p1", "Limon"))
	s = s.Apply(lifecycle.Mounted{})
	assert.Equal(t, State{}, s)
}

func TestState_PredioChangeClearsSite(t *testing.T) {
	var s State
	s = s.Apply(primary("p1", "Naranja"))
	s = s.Apply(site("p1", 90))
	require.NotNil(t, s.Site)

	s = s.Apply(primary("p1", "Naranja"))
	assert.NotNil(t, s.Site, "same predio keeps the site")

	s = s.Apply(primary("p2", "Naranja"))
	assert.Nil(t, s.Site)
}

func TestState_StaleSiteIgnored(t *testing.T) {
	var s State
	s = s.Apply(primary("p2", "Limon"))
	s = s.Apply(site("p1", 90))

	assert.Nil(t, s.Site)
	assert.Equal(t, remote.ActionPrimaryRecord, s.LastCall.Action)
}

func TestState_SiteWithoutRecordIgnored(t *testing.T) {
	s := State{}.Apply(site("p1", 90))
	assert.Nil(t, s.Site)
}

func TestState_NoMatchingLotRendersZero(t *testing.T) {
	var s State
	s = s.Apply(primary("p1", "Limon"))
	s = s.Apply(lifecycle.SiteResolved{Predio: "p1", Result: remote.Ok[*remote.Lot](nil)})

	assert.Nil(t, s.Site)
	assert.Zero(t, Derive(s).Yield.Percent)
}

func TestState_FailedCallsKeepData(t *testing.T) {
	var s State
	s = s.Apply(primary("p1", "Limon"))
	s = s.Apply(site("p1", 75))

	s = s.Apply(lifecycle.PrimaryLoaded{Result: remote.Timeout[remote.TelevisorRecord](remote.ErrTimeout)})
	require.NotNil(t, s.Record)
	assert.Equal(t, "Limon", s.Record.TipoFruta)
	assert.Equal(t, remote.StatusTimeout, s.LastCall.Status)
	assert.Contains(t, s.LastCall.Error, "timeout")

	s = s.Apply(lifecycle.SiteResolved{Predio: "p1", Result: remote.Malformed[*remote.Lot](errors.New("bad"))})
	require.NotNil(t, s.Site)
	assert.Equal(t, remote.StatusMalformed, s.LastCall.Status)
}

func TestState_TransitionsAndNotices(t *testing.T) {
	var s State
	s = s.Apply(lifecycle.TransitionObserved{From: lifecycle.StateUnknown, To: lifecycle.StateBackground})
	s = s.Apply(lifecycle.ProcessNotified{Action: remote.ActionProcessEnd, Result: remote.Failed[json.RawMessage](errors.New("down"))})
	s = s.Apply(lifecycle.FeedFailed{Err: errors.New("broker down")})

	assert.Equal(t, lifecycle.StateBackground, s.AppState)
	require.NotNil(t, s.LastNotice)
	assert.Equal(t, remote.ActionProcessEnd, s.LastNotice.Action)
	assert.Equal(t, remote.StatusFailed, s.LastNotice.Status)
	assert.Equal(t, "broker down", s.FeedError)
}
