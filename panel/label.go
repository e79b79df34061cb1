// panel/label.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package panel

import (
	"fmt"
	"time"
)

const (
	initFormat = "060102/1504"
	fcstFormat = "Mon 060102/1504"
)

// BaseLabel returns the two lines of text identifying the model run and
// forecast time of a panel, e.g.
//
//	HRRR FORECAST INIT 240101/0000F360
//	360-HR FCST VALID Mon 240101/0600V360
//
// The lead number is the forecast lead in whole minutes.
func BaseLabel(model string, init, fcst time.Time) []string {
	lead := int(fcst.Sub(init) / time.Minute)
	return []string{
		fmt.Sprintf("%s FORECAST INIT %sF%03d", model, init.Format(initFormat), lead),
		fmt.Sprintf("%03d-HR FCST VALID %sV%03d", lead, fcst.Format(fcstFormat), lead),
	}
}
