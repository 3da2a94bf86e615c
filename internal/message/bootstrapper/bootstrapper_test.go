package bootstrapper_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openpeer/internal/message"
	"openpeer/internal/message/bootstrapper"
	"openpeer/internal/message/info"
)

func TestServicesGetRoundTrip(t *testing.T) {
	r := message.NewRegistry()
	bootstrapper.Register(r)

	req := bootstrapper.NewServicesGetRequest("example.com")
	res := bootstrapper.NewServicesGetResult(req)
	res.Services = []info.ServiceInfo{
		{ID: "1", Type: "lockbox", Version: "1.0", Methods: []info.ServiceMethod{{Name: "lockbox-access", URI: "http://lb/"}}},
		{ID: "2", Type: "rolodex"},
	}

	b, err := message.EncodeBytes(res)
	require.NoError(t, err)
	got, ok := r.Parse(b, "").(*bootstrapper.ServicesGetResult)
	require.True(t, ok)
	assert.Equal(t, res, got)

	svc, ok := got.Service("lockbox")
	require.True(t, ok)
	assert.Equal(t, "http://lb/", svc.MethodURI("lockbox-access"))
}
