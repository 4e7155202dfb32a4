// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across duinocli: crash-safe
// file writes, rune-aware truncation, and width-aware column layout for
// command listings.
package util
