// Package io reads solve requests and reads and writes plans.
//
// # Requests
//
// A request names goals, roots and unlocked milestones by good and milestone
// name, in TOML or JSON:
//
//	roots = ["ore", "coal"]
//	milestones = ["electrics"]
//
//	[[goals]]
//	good = "circuit"
//	amount = 4
//
// [Request.Resolve] turns names into catalog identifiers. Leaving milestones
// out makes every recipe accessible.
//
// # Plans
//
// Plans are written as JSON with recipe names instead of identifiers, so the
// output stays meaningful outside the process that produced it:
//
//	{
//	  "catalog": "5f2c…",
//	  "objective": 35,
//	  "deadlock": false,
//	  "tiers": [
//	    [{"recipe": "smelting", "rate": 10, "downstream": ["gears"]}],
//	    [{"recipe": "gears", "rate": 5, "upstream": ["smelting"]}]
//	  ]
//	}
//
// [ReadPlan] resolves the names against a catalog again and refuses plans
// written for a different catalog fingerprint.
package io
