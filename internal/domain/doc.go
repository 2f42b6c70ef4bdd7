// Package domain models the DIVI Intensivregister daily ICU bed reports.
//
// # Data Source
//
// DIVI publishes one CSV per day in its Tagesreport archive at
// https://www.divi.de/divi-intensivregister-tagesreport-archiv-csv. The
// listing page links every file as
//
//	/divi-intensivregister-tagesreport-archiv-csv/divi-intensivregister-YYYY-MM-DD-HH-MM[-N]/viewdocument
//
// Same-day corrections are published with a "-N" suffix. Only the last link
// listed for a date is kept; see [LatestPerDay].
//
// # Schema History
//
// The header changed several times without notice:
//
//	2020-04-24  bundesland,kreis,anzahl_standorte,betten_frei,betten_belegt,faelle_covid_aktuell_im_bundesland
//	2020-04-26  gemeindeschluessel,anzahl_meldebereiche,faelle_covid_aktuell,faelle_covid_aktuell_beatmet,anzahl_standorte,betten_frei,betten_belegt,bundesland
//	2020-04-28  as above plus daten_stand
//	2020-06-28  bundesland,gemeindeschluessel,...,betten_belegt,daten_stand
//
// Reports are therefore read by column name. The two earliest reports
// (2020-04-24, 2020-04-25) have no district keys and are skipped. In some
// files betten_frei and betten_belegt are written as decimals ("12.0"); they
// are truncated to integers.
//
// # Identifiers
//
// gemeindeschluessel is the five-digit Amtlicher Gemeindeschlüssel of the
// district (Landkreis or kreisfreie Stadt), e.g. 05315 for Köln. bundesland is
// the two-digit Länderschlüssel 01..16, translated to short codes (SH..TH) by
// [StateCode].
//
// # Derived Metrics
//
// Only raw counts are summed across districts. Percentages are derived once
// from the (possibly summed) counts by [NewDailyRecord]:
//
//	betten_ges                         betten_frei + betten_belegt
//	betten_belegt_proz                 100 * betten_belegt / betten_ges        (null if betten_ges == 0)
//	faelle_covid_aktuell_proz          100 * faelle_covid_aktuell / betten_ges (null if betten_ges == 0)
//	faelle_covid_aktuell_beatmet_proz  100 * beatmet / faelle_covid_aktuell    (0 if no cases)
//
// All percentages are rounded to one decimal place.
package domain
