package domain

// RewardShare returns one fully-successful participant's cut of the
// forfeited pool. Integer floor division; any remainder stays in the vault.
func RewardShare(totalPool, entryAmount int64, successfulParticipants int) int64 {
	if successfulParticipants <= 0 {
		return 0
	}
	forfeited := totalPool - int64(successfulParticipants)*entryAmount
	return forfeited / int64(successfulParticipants)
}

// Payout returns the total amount owed to a fully-successful participant:
// their own stake back plus a share of what unsuccessful participants
// forfeited. Participants who did not complete every day are owed nothing
// and are not handled here.
func Payout(totalPool, entryAmount int64, successfulParticipants int) int64 {
	return entryAmount + RewardShare(totalPool, entryAmount, successfulParticipants)
}
