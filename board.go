package main

// The eight winning lines of a 3x3 board: rows, then columns, then
// diagonals. Lines are checked in this fixed order, so the reported line is
// canonical even if a move happens to complete more than one.
var winLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// WinResult names the winning symbol and the cells of the completed line.
type WinResult struct {
	Symbol string
	Line   [3]int
}

func checkWinner(board [9]string) (WinResult, bool) {
	for _, line := range winLines {
		first := board[line[0]]
		if first != "" && first == board[line[1]] && first == board[line[2]] {
			return WinResult{Symbol: first, Line: line}, true
		}
	}

	return WinResult{}, false
}

func boardFull(board [9]string) bool {
	for _, cell := range board {
		if cell == "" {
			return false
		}
	}

	return true
}
