// Copyright (c) 2025-2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"github.com/choria-io/hcpfix/model"
)

func reportEvent(out model.Logger, event model.SessionEvent) {
	if out == nil {
		return
	}

	e, ok := event.(*model.ExecutionEvent)
	if !ok {
		return
	}

	e.LogStatus(out)
}

func filterEvents(allEvents []model.SessionEvent, name string) []model.ExecutionEvent {
	filtered := []model.ExecutionEvent{}
	for _, event := range allEvents {
		execEvent, ok := event.(*model.ExecutionEvent)
		if !ok {
			continue
		}

		if execEvent.Name == name {
			filtered = append(filtered, *execEvent)
		}
	}

	return filtered
}
