// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunScenario(t *testing.T) {
	opts := options{
		buyUnits:    3,
		priceMicros: 1_500_000,
		workers:     2,
		timeout:     time.Minute,
	}
	require.NoError(t, run(context.Background(), opts))
}
