// Package domain detects threshold exceedance events in NERRS System-Wide
// Monitoring Program (SWMP) time series and counts them by calendar period.
//
// # Data Source
//
// Observations come from the NERRS Centralized Data Management Office
// exports after an upstream QA/QC and resampling step. Each Kafka message is
// one station dataset (see [Dataset]) with an evenly stepped time column.
//
// # SWMP Data Conventions
//
// Station codes:
//
//	"<reserve><site><type>"  →  e.g. "gndbhwq"
//	means Grand Bay reserve, Bayou Heron site, water quality sonde.
//	The trailing type decides the data category:
//	  wq   water quality, continuous (15 minute step)
//	  met  meteorological, continuous (15 minute step)
//	  nut  nutrients, periodic grab samples (roughly monthly)
//
// Columns:
//
//	"datetimestamp" is the observation time.
//	Numeric columns are parameters, e.g. do_mgl, sal, temp, chla_n.
//	"f_<param>" columns are QA/QC flags such as "<0>" or "<-3> [GSM]".
//	Their presence means flags were not resolved upstream; analysis still
//	runs but reports [WarningDataQuality].
//
// # Events
//
// A continuous event covers a maximal run of consecutive flagged samples.
// Start is the first flagged timestamp and End the last, so a run of n
// samples at step s lasts (n-1)·s and a single flagged sample lasts zero.
// The minimum duration filter compares against that value.
//
// Periodic data has no duration concept: each flagged grab sample is its own
// event and the filter is skipped.
//
// # Aggregation
//
// Events are counted by the year and month or season of their start. The
// grid always holds every label for every year of the observed span so a
// zero means "no exceedance" rather than "no data". Seasons follow a
// [SeasonPolicy]; the year stays the calendar year even when the policy
// starts its cycle mid-year.
//
// # ID Generation
//
// Event IDs are deterministic SHA-256 hashes of station|rule|start so reruns
// produce the same IDs. See [generateID].
package domain
