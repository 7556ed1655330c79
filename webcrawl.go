// Package webcrawl provides a breadth-first web crawler.
// Given a seed address it fetches reachable pages up to a configured link
// depth, bounds the load placed on each target host, and fetches every
// discovered address at most once.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, sqlite/, http/).
package webcrawl
