package feast

import (
	"context"
	"testing"

	feasttypes "github.com/feast-dev/feast/sdk/go/protos/feast/types"

	"github.com/fall-development-rob/hackathon-tv5-sub003/core"
)

func TestGrpcClient_ClosedClientErrors(t *testing.T) {
	c := &GrpcClient{}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	_, err := c.GetOnlineFeatures(context.Background(), &GetOnlineFeaturesRequest{
		Features:   []string{DefaultVectorFeature},
		EntityRows: []map[string]interface{}{{"content_id": "603"}},
	})
	if !core.IsUnavailable(err) {
		t.Errorf("err = %v, want UNAVAILABLE domain error instead of a panic", err)
	}
}

func TestSDKValueRoundTrip(t *testing.T) {
	vec := []float64{0.6, 0.8}

	t.Run("entity values convert without nils", func(t *testing.T) {
		inputs := []interface{}{"603", 603, int64(603), 3.14, true, []byte("id")}
		for _, in := range inputs {
			if toSDKValue(in) == nil {
				t.Errorf("toSDKValue(%v) = nil", in)
			}
		}
	})

	t.Run("double list comes back as a float64 slice", func(t *testing.T) {
		sdkVal := &feasttypes.Value{Val: &feasttypes.Value_DoubleListVal{
			DoubleListVal: &feasttypes.DoubleList{Val: vec},
		}}
		got, ok := fromSDKValue(sdkVal).([]float64)
		if !ok || len(got) != 2 || got[0] != 0.6 {
			t.Errorf("got %v, want %v", got, vec)
		}
	})

	t.Run("scalar double comes back as float64", func(t *testing.T) {
		if got := fromSDKValue(toSDKValue(3.14)); got != 3.14 {
			t.Errorf("got %v, want 3.14", got)
		}
	})

	t.Run("nil value yields nil", func(t *testing.T) {
		if got := fromSDKValue(nil); got != nil {
			t.Errorf("got %v, want nil", got)
		}
	})
}
