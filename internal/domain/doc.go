// Package domain models severe-weather reports gathered from two National
// Weather Service sources that describe the same weather day.
//
// # Data Sources
//
// Preliminary reports come from the NOAA Storm Prediction Center (SPC) daily
// "filtered" CSV files at https://www.spc.noaa.gov/climo/reports/. A file is
// published for every operational day and revised for several weeks as local
// offices confirm or discard reports.
//
// Authoritative reports come from the NCEI Storm Events Database bulk files
// at https://www.ncei.noaa.gov/pub/data/swdi/stormevents/csvfiles/. One
// gzip-compressed CSV is published per year and re-published with a new
// creation stamp whenever the year is revised:
//
//	StormEvents_details-ftp_v1.0_d2010_c20220425.csv.gz
//	                               ^^^^^  ^^^^^^^^
//	                               year   revision
//
// Once a year's archive exists it supersedes the SPC feed for that year.
//
// # Weather Day
//
// Every grouping in this module uses the "weather day": the calendar date of
// the timestamp shifted back twelve hours. An event at 2010-07-11 03:15 UTC
// belongs to the 2010-07-10 weather day. See [DayBoundary].
//
// # SPC Data Conventions
//
// Section headers switch the event type for the rows that follow:
//
//	Time,F_Scale,Location,County,State,Lat,Lon,Comments  -> Tornado
//	Time,Speed,Location,County,State,Lat,Lon,Comments    -> Thunderstorm Wind
//	Time,Size,Location,County,State,Lat,Lon,Comments     -> Hail
//
// Time is HHMM in UTC. The file covers 12Z through 12Z, so hours before noon
// fall on the next calendar date. Hail size is in hundredths of an inch
// ("175" = 1.75"), wind speed is mph, and "UNK" marks an unknown magnitude.
// Tornado rows carry no rating column; the rating is read from the comment
// ("...EF2 tornado...") and defaults to "EFU". Comments end with the issuing
// office in parentheses, e.g. "(OUN)".
//
// # Storm Events Conventions
//
// BEGIN_DATE_TIME is local standard time in "02-Jan-06 15:04:05" and
// CZ_TIMEZONE carries the offset ("CST-6"). Only Hail, Thunderstorm Wind and
// Tornado rows are kept. Coordinates are often missing and are kept as NaN.
//
// # Headline Event
//
// Each day's headline is the most severe, then earliest, event at or after
// 18:00 UTC. It is computed with a sortable string score; see
// [EncodeHeadlineScore].
package domain
