// Package synthetic generates plausible fake readings for the dev panel.
package synthetic
