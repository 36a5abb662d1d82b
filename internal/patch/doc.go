// Package patch merges the per-mod JSON fragments addressed to one strategy
// into a single ordered patch plan.
//
// Fragments are merged in the order given, which is mod priority order:
// lists targeting the same (target, sub-item) pair are concatenated without
// deduplication, and targets keep the order they were first seen in.
//
// Each fragment is checked against a CUE schema before it is merged. A
// fragment of the wrong shape yields a MalformedPatch error for the target it
// addressed; the remaining targets are still merged and returned alongside
// the (joined) errors.
//
// All strings taken from mods are NFC-normalized so names interned from
// different mods compare equal.
package patch
