package bind_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/glanger/pkg/httpkit"
	"github.com/screwyprof/glanger/staking"
	"github.com/screwyprof/glanger/web/api"
	"github.com/screwyprof/glanger/web/handler/bind"
)

func TestCaller(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		header  string
		want    common.Address
		wantErr error
	}{
		{
			name:   "it parses a checksummed address",
			header: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
			want:   common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"),
		},
		{
			name:   "it parses a lowercase address",
			header: "0x70997970c51812dc3a010c7d01b50e0d17dc79c8",
			want:   common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"),
		},
		{name: "it requires the header", wantErr: bind.ErrMissingCaller},
		{name: "it rejects garbage", header: "alice", wantErr: bind.ErrInvalidCaller},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			r := httptest.NewRequest(http.MethodPost, "/v1/stakes/1", nil)
			if tc.header != "" {
				r.Header.Set(bind.CallerHeader, tc.header)
			}

			// Act
			got, err := bind.Caller(r)

			// Assert
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTokenIDsRequest(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		body    string
		want    []uint64
		wantErr error
	}{
		{name: "it decodes token ids", body: `{"tokenIds":[3,1,2]}`, want: []uint64{3, 1, 2}},
		{name: "it rejects an empty list", body: `{"tokenIds":[]}`, wantErr: staking.ErrEmptyBatch},
		{name: "it rejects a missing body", wantErr: httpkit.ErrEmptyBody},
		{name: "it rejects negative ids", body: `{"tokenIds":[-1]}`, wantErr: httpkit.ErrMalformedBody},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			r := httptest.NewRequest(http.MethodPost, "/v1/stakes", strings.NewReader(tc.body))

			// Act
			got, err := bind.TokenIDsRequest(r)

			// Assert
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRewardRateRequest(t *testing.T) {
	t.Parallel()

	t.Run("it parses a decimal rate", func(t *testing.T) {
		t.Parallel()

		// Arrange
		r := httptest.NewRequest(http.MethodPut, "/v1/rewards/rate", strings.NewReader(`{"rewardsPerHour":"250000"}`))

		// Act
		rate, err := bind.RewardRateRequest(r)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, uint256.NewInt(250000), rate)
	})

	t.Run("it rejects a non-decimal rate", func(t *testing.T) {
		t.Parallel()

		// Arrange
		r := httptest.NewRequest(http.MethodPut, "/v1/rewards/rate", strings.NewReader(`{"rewardsPerHour":"lots"}`))

		// Act
		_, err := bind.RewardRateRequest(r)

		// Assert
		require.ErrorIs(t, err, staking.ErrInvalidRewardRate)
	})
}

func TestStakersRequest(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		query   string
		want    api.StakersRequest
		wantErr error
	}{
		{
			name: "it applies defaults",
			want: api.StakersRequest{Page: staking.DefaultPage, PerPage: staking.DefaultPerPage},
		},
		{
			name:  "it reads both parameters",
			query: "?page=3&per_page=20",
			want:  api.StakersRequest{Page: 3, PerPage: 20},
		},
		{name: "it rejects page zero", query: "?page=0", wantErr: bind.ErrPageNotPositive},
		{name: "it rejects a textual page", query: "?page=first", wantErr: bind.ErrPageNotNumeric},
		{name: "it rejects per_page zero", query: "?per_page=0", wantErr: bind.ErrPerPageNotPositive},
		{name: "it rejects oversized pages", query: "?per_page=101", wantErr: bind.ErrPerPageTooLarge},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			r := httptest.NewRequest(http.MethodGet, "/v1/stakers"+tc.query, nil)

			// Act
			got, err := bind.StakersRequest(r)

			// Assert
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestStakeInfoResponse(t *testing.T) {
	t.Parallel()

	// Arrange
	addr := common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")

	// Act
	got := bind.StakeInfoResponse(addr, staking.StakeInfo{})

	// Assert
	assert.Equal(t, api.StakeInfo{
		Address:          addr.Hex(),
		AvailableRewards: "0",
		TokenIDs:         []uint64{},
	}, got)
}
