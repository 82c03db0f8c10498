// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package config

import (
	"testing"

	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

func newKoanfWithDefaults(t *testing.T) *koanf.Koanf {
	t.Helper()
	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	return k
}

func koanfKeys(t *testing.T) []string {
	t.Helper()
	return newKoanfWithDefaults(t).Keys()
}
