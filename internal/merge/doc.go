// Package merge builds the analysis-ready tables by joining the squad
// datasets against each other and against the match calendar.
//
// Two kinds of operation live here and they are deliberately distinct:
//
//   - AttachMatchContext is a per-row map. It adds the matchday context
//     flags (MD-1, MD+1) to each record and can never change the row
//     count other than dropping rows without a usable date.
//
//   - JoinOnPlayerDate is a relational join on the (player, date) key.
//     Duplicate keys present on both sides would fan out the result, so
//     that case is rejected with a JoinAmbiguityError naming the key.
//     Duplicate keys on a single side (capability lists one row per
//     movement) fan out as expected.
//
// The sign convention for the context flags is fixed here and nowhere
// else: a record dated d carries IsMDMinus1 when d+1 is a match date,
// meaning the record falls on the day before a match. IsMDPlus1 is the
// mirror image. The two flags are independent booleans; both are set
// when a date sits between two matches two days apart.
package merge
