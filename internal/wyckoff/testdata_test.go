package wyckoff

import "time"

// bar builds one OHLCV bar; timestamps advance one hour per index.
func bar(i int, open, high, low, close, volume float64) OHLCVBar {
	return OHLCVBar{
		Timestamp: time.Unix(1700000000, 0).Add(time.Duration(i) * time.Hour),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     close,
		Volume:    volume,
	}
}

// accumulationBars is a full textbook accumulation: downtrend, selling
// climax at bar 5 (3x volume), automatic rally to 94 at bar 8, secondary
// test at bar 11, ten quiet consolidation bars, spring undercut of 89.5 at
// bar 22 on dried-up volume, breakout close above 94 at bar 25 on heavy
// volume, premium pullback at bar 27, markup from bar 28.
func accumulationBars() []OHLCVBar {
	return []OHLCVBar{
		bar(0, 100, 100.5, 98.5, 99, 100),
		bar(1, 99, 99.5, 97.5, 98, 100),
		bar(2, 98, 98.5, 96.5, 97, 100),
		bar(3, 97, 97.5, 95.5, 96, 100),
		bar(4, 96, 96.5, 95.2, 95.6, 100),
		bar(5, 95, 95.5, 89.5, 90, 300), // SC
		bar(6, 90.5, 92, 90, 91.8, 150),
		bar(7, 91.8, 93, 91.5, 92.8, 130),
		bar(8, 92.8, 94, 92.5, 93.5, 120), // AR high
		bar(9, 93.5, 93.6, 92.5, 92.8, 90),
		bar(10, 92.8, 93, 91.5, 92, 85),
		bar(11, 92, 92.2, 90, 92, 80), // ST of the climax low
		bar(12, 92, 93, 91.5, 92.5, 95),
		bar(13, 92.5, 93.5, 92, 93, 90),
		bar(14, 93, 93.8, 92.5, 93.2, 100),
		bar(15, 93.2, 93.5, 92, 92.3, 92),
		bar(16, 92.3, 92.8, 91.6, 92, 88),
		bar(17, 92, 93, 91.8, 92.8, 94),
		bar(18, 92.8, 93.5, 92.2, 93, 91),
		bar(19, 93, 93.2, 91.9, 92.2, 89),
		bar(20, 92.2, 92.6, 91.6, 92, 93),
		bar(21, 92, 92.5, 91.5, 92.2, 85),
		bar(22, 90, 90.8, 89, 90.5, 60), // Spring under 89.5
		bar(23, 90.5, 91.8, 90.3, 91.5, 110),
		bar(24, 91.5, 93, 91.4, 92.5, 105),
		bar(25, 92.5, 95.2, 92.4, 95, 250), // SOS close above 94
		bar(26, 95, 95.5, 95, 95.3, 120),
		bar(27, 94.8, 94.9, 94.2, 94.6, 100), // LPS pullback to the Ice
		bar(28, 94.6, 96, 94.5, 95.8, 130),
		bar(29, 95.8, 96.5, 95.5, 96.2, 110),
	}
}

// accumulationRange is the Creek/Ice pair matching accumulationBars.
func accumulationRange() *TradingRangeContext {
	return &TradingRangeContext{Support: 89.5, Resistance: 94}
}
